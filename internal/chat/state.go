package chat

import (
	"errors"

	"social-client/internal/api"
	"social-client/internal/models"
)

var (
	ErrEmptyMessage     = errors.New("message is empty")
	ErrNoConversation   = errors.New("no conversation is open")
	errPermissionDenied = "You can only message people who follow you back."
)

// ErrorKind classifies the last failure surfaced in State.
type ErrorKind string

const (
	ErrorNone             ErrorKind = ""
	ErrorPermissionDenied ErrorKind = "permission_denied"
	ErrorSessionExpired   ErrorKind = "session_expired"
	ErrorFailure          ErrorKind = "failure"
)

// State is a snapshot of the open conversation. Messages are ordered newest first.
type State struct {
	Conversation *models.Conversation
	Messages     []models.Message
	NextCursor   string
	Loading      bool
	Sending      bool
	ErrorKind    ErrorKind
	Error        string
}

func describe(err error) (ErrorKind, string) {
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return ErrorSessionExpired, api.UserMessage(err)
	case errors.Is(err, api.ErrPermissionDenied):
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return ErrorPermissionDenied, apiErr.Message
		}
		return ErrorPermissionDenied, errPermissionDenied
	default:
		return ErrorFailure, api.UserMessage(err)
	}
}

// prepend puts msg at the head unless a message with the same id is already present.
func prepend(list []models.Message, msg models.Message) ([]models.Message, bool) {
	for _, existing := range list {
		if existing.ID == msg.ID {
			return list, false
		}
	}
	out := make([]models.Message, 0, len(list)+1)
	out = append(out, msg)
	return append(out, list...), true
}

// dedupe keeps the first occurrence of every message id.
func dedupe(list []models.Message) []models.Message {
	seen := make(map[string]struct{}, len(list))
	out := make([]models.Message, 0, len(list))
	for _, msg := range list {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		seen[msg.ID] = struct{}{}
		out = append(out, msg)
	}
	return out
}

// signal is a coalescing change notifier.
type signal chan struct{}

func newSignal() signal {
	return make(signal, 1)
}

func (s signal) fire() {
	select {
	case s <- struct{}{}:
	default:
	}
}
