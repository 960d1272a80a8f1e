package api

import (
	"context"

	"social-client/internal/models"
)

// ChatAPI is the chat surface of the backend.
type ChatAPI interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
	DirectConversation(ctx context.Context, userID string) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	Messages(ctx context.Context, conversationID, cursor string, limit int) (models.Page[models.Message], error)
	SendMessage(ctx context.Context, conversationID string, req models.SendMessageRequest) (models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID string) error
}

// NotificationAPI is the notification surface of the backend plus profile lookup.
type NotificationAPI interface {
	Notifications(ctx context.Context, cursor string, limit int) (models.Page[models.Notification], error)
	UnreadNotificationCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	GetUser(ctx context.Context, userID string) (models.User, error)
}

// SocialAPI is the feed, post, comment, follow and group surface of the backend.
type SocialAPI interface {
	Feed(ctx context.Context, cursor string, limit int) (models.Page[models.Post], error)
	CreatePost(ctx context.Context, req models.CreatePostRequest) (models.Post, error)
	GetPost(ctx context.Context, postID string) (models.Post, error)
	DeletePost(ctx context.Context, postID string) error
	LikePost(ctx context.Context, postID string) error
	UnlikePost(ctx context.Context, postID string) error
	Comments(ctx context.Context, postID, cursor string, limit int) (models.Page[models.Comment], error)
	CreateComment(ctx context.Context, postID string, req models.CreateCommentRequest) (models.Comment, error)
	LikeComment(ctx context.Context, commentID string) error
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	Followers(ctx context.Context, userID, cursor string, limit int) (models.Page[models.User], error)
	Following(ctx context.Context, userID, cursor string, limit int) (models.Page[models.User], error)
	CreateGroup(ctx context.Context, req models.CreateGroupRequest) (models.Conversation, error)
}

var _ ChatAPI = (*Client)(nil)
var _ NotificationAPI = (*Client)(nil)
var _ SocialAPI = (*Client)(nil)
