package models

import "time"

// Message represents a chat message. Messages are immutable once created.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Content        string    `json:"content"`
	ReplyToID      string    `json:"reply_to_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageRequest is the body of a message post.
type SendMessageRequest struct {
	Content   string `json:"content" validate:"required,max=4000"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

// Page is a cursor-paginated slice of items.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
