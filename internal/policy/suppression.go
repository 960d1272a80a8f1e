// Package policy decides whether an incoming chat message should raise a local notification.
package policy

import (
	"sync"

	"social-client/internal/models"
)

// State is the app lifecycle information the policy depends on.
type State struct {
	Foreground         bool
	OpenConversationID string
}

// AppState tracks whether the app is in the foreground and which conversation is on screen.
type AppState struct {
	mu    sync.RWMutex
	state State
}

// NewAppState starts in the foreground with no open conversation.
func NewAppState() *AppState {
	return &AppState{state: State{Foreground: true}}
}

func (a *AppState) SetForeground(foreground bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Foreground = foreground
}

func (a *AppState) SetOpenConversation(conversationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.OpenConversationID = conversationID
}

// CloseConversation clears the open conversation if it is still conversationID.
func (a *AppState) CloseConversation(conversationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.OpenConversationID == conversationID {
		a.state.OpenConversationID = ""
	}
}

func (a *AppState) Snapshot() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Decision is the outcome of Evaluate along with the rule that produced it.
type Decision struct {
	Show   bool
	Reason string
}

// Evaluate applies the rules in order:
//  1. own or anonymous messages are suppressed
//  2. a backgrounded app always shows
//  3. messages for a conversation other than the open one show
//  4. everything else (foreground, same conversation) is suppressed
func Evaluate(state State, currentUserID string, msg models.Message) Decision {
	switch {
	case msg.SenderID == "" || msg.SenderID == currentUserID:
		return Decision{Show: false, Reason: "own_message"}
	case !state.Foreground:
		return Decision{Show: true, Reason: "background"}
	case state.OpenConversationID != msg.ConversationID:
		return Decision{Show: true, Reason: "other_conversation"}
	default:
		return Decision{Show: false, Reason: "viewing_conversation"}
	}
}

// ShouldNotify reports whether msg should raise a local notification.
func ShouldNotify(state State, currentUserID string, msg models.Message) bool {
	return Evaluate(state, currentUserID, msg).Show
}
