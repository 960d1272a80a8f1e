package ws

import "social-client/internal/models"

// MessageChannel is what chat state holders need from the realtime connection.
type MessageChannel interface {
	JoinConversation(conversationID string)
	LeaveConversation(conversationID string)
	JoinAllConversations(conversationIDs []string) bool
	SubscribeMessages() *Subscription[models.Message]
}

// NotificationChannel is what the notification state holder needs from the realtime connection.
type NotificationChannel interface {
	SubscribeNotifications() *Subscription[models.NotificationEvent]
}

var _ MessageChannel = (*Manager)(nil)
var _ NotificationChannel = (*Manager)(nil)
