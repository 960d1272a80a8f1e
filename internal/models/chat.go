package models

import "time"

// ConversationType distinguishes direct chats from group chats.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// Conversation is the client-side view of a chat the user participates in.
type Conversation struct {
	ID             string           `json:"id"`
	Type           ConversationType `json:"type"`
	Name           string           `json:"name"`
	AvatarURL      string           `json:"avatar_url,omitempty"`
	ParticipantIDs []string         `json:"participant_ids,omitempty"`
	LastMessage    string           `json:"last_message,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
	UnreadCount    int              `json:"unread_count"`
	Online         bool             `json:"online"`
}

// StartDirectRequest resolves or creates a direct conversation with another user.
type StartDirectRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// MarkReadResponse is returned when a conversation is acknowledged as read.
type MarkReadResponse struct {
	ConversationID string `json:"conversation_id"`
	UnreadCount    int    `json:"unread_count"`
}
