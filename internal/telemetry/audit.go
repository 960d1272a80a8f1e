package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Audit event types emitted by the client.
const (
	AuditLogin          = "login"
	AuditLogout         = "logout"
	AuditSessionExpired = "session_expired"
	AuditTokenRefreshed = "token_refreshed"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventID       string       `json:"event_id"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Action string `json:"action"`
	Level  string `json:"level"`
	Text   string `json:"text"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes an audit record. A nil emitter is a no-op.
func (e *AuditEmitter) Emit(ctx context.Context, action, level, text, requestID, userID string) {
	if e == nil || e.publisher == nil {
		return
	}

	var uid *string
	if userID != "" {
		uid = &userID
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	log.Printf("audit emit: action=%s level=%s request_id=%s user_id=%s text=%q", action, level, requestID, userID, text)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventID:       uuid.NewString(),
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        uid,
		Payload: AuditPayload{
			Action: action,
			Level:  level,
			Text:   text,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
