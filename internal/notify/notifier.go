package notify

import (
	"context"
	"log"
	"time"

	"social-client/internal/observability"
)

// DefaultChannel is the single channel local notifications are posted to.
const DefaultChannel = "chat_messages"

const routingKey = "local_notifications"

// Notification is a local system notification.
type Notification struct {
	Channel        string `json:"channel"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Notifier surfaces local notifications.
type Notifier interface {
	Show(ctx context.Context, n Notification) error
}

// Publisher is satisfied by the rabbitmq publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// PublisherNotifier logs notifications and forwards them to a publisher.
type PublisherNotifier struct {
	publisher Publisher
}

func NewPublisherNotifier(publisher Publisher) *PublisherNotifier {
	return &PublisherNotifier{publisher: publisher}
}

func (n *PublisherNotifier) Show(ctx context.Context, notification Notification) error {
	if notification.Channel == "" {
		notification.Channel = DefaultChannel
	}
	log.Printf("notify: [%s] %s: %s", notification.Channel, notification.Title, notification.Body)

	return n.publisher.Publish(ctx, routingKey, observability.EventEnvelope{
		EventType:  "local_notification",
		EventName:  notification.Channel,
		OccurredAt: time.Now().UTC(),
		Payload:    notification,
	})
}
