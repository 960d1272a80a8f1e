package observability

import "time"

type EventEnvelope struct {
	EventType  string      `json:"event_type"`
	EventName  string      `json:"event_name"`
	OccurredAt time.Time   `json:"occurred_at"`
	RequestID  string      `json:"request_id,omitempty"`
	TraceID    string      `json:"trace_id,omitempty"`
	Payload    interface{} `json:"payload"`
}

// WSEvent builds the envelope published for realtime lifecycle changes.
func WSEvent(name, userID, reason string, connectedFor time.Duration) EventEnvelope {
	return EventEnvelope{
		EventType:  "ws_events",
		EventName:  name,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       name,
				"duration_ms": connectedFor.Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id": userID,
			},
		},
	}
}
