package models

// Realtime event names exchanged over the socket.
const (
	EventConnect           = "connect"
	EventDisconnect        = "disconnect"
	EventConnectError      = "connect_error"
	EventReconnectAttempt  = "reconnect_attempt"
	EventReconnect         = "reconnect"
	EventReconnectFailed   = "reconnect_failed"
	EventConnected         = "connected"
	EventNewNotification   = "new_notification"
	EventNewMessage        = "new_message"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
)

// NotificationEvent is the partial notification payload pushed over the socket.
type NotificationEvent struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	ActorID   string           `json:"actor_id"`
	ActorName string           `json:"actor_name,omitempty"`
	Message   string           `json:"message"`
	PostID    string           `json:"post_id,omitempty"`
}

// RoomPayload is sent with join and leave events.
type RoomPayload struct {
	ConversationID string `json:"conversation_id"`
}
