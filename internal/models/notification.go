package models

import "time"

// NotificationType enumerates what triggered a notification.
type NotificationType string

const (
	NotificationLikePost     NotificationType = "like_post"
	NotificationLikeComment  NotificationType = "like_comment"
	NotificationCommentPost  NotificationType = "comment_post"
	NotificationReplyComment NotificationType = "reply_comment"
	NotificationFollow       NotificationType = "follow"
	NotificationSharePost    NotificationType = "share_post"
)

// Resolution tracks whether a notification's actor details come from the server.
type Resolution string

const (
	// ResolutionResolved entries carry server-confirmed actor details.
	ResolutionResolved Resolution = "resolved"
	// ResolutionPending entries were built from a partial realtime payload.
	ResolutionPending Resolution = "pending"
	// ResolutionFailed entries kept their placeholder because the profile lookup failed.
	ResolutionFailed Resolution = "failed"
)

// Notification is an activity notification addressed to the current user.
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	ActorID    string           `json:"actor_id"`
	ActorName  string           `json:"actor_name"`
	Message    string           `json:"message"`
	Read       bool             `json:"is_read"`
	AvatarURL  string           `json:"avatar_url,omitempty"`
	PostID     string           `json:"post_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	Resolution Resolution       `json:"resolution,omitempty"`
}

// UnreadCount is the badge counter payload.
type UnreadCount struct {
	Count int `json:"count"`
}
