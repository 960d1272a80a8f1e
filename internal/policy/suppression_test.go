package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"social-client/internal/models"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		state  State
		msg    models.Message
		show   bool
		reason string
	}{
		{"own message foreground", State{Foreground: true}, models.Message{SenderID: "me", ConversationID: "x"}, false, "own_message"},
		{"own message background", State{Foreground: false}, models.Message{SenderID: "me", ConversationID: "x"}, false, "own_message"},
		{"empty sender", State{Foreground: false}, models.Message{ConversationID: "x"}, false, "own_message"},
		{"background same conversation", State{Foreground: false, OpenConversationID: "x"}, models.Message{SenderID: "bob", ConversationID: "x"}, true, "background"},
		{"foreground other conversation", State{Foreground: true, OpenConversationID: "y"}, models.Message{SenderID: "bob", ConversationID: "x"}, true, "other_conversation"},
		{"foreground nothing open", State{Foreground: true}, models.Message{SenderID: "bob", ConversationID: "x"}, true, "other_conversation"},
		{"foreground same conversation", State{Foreground: true, OpenConversationID: "x"}, models.Message{SenderID: "bob", ConversationID: "x"}, false, "viewing_conversation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.state, "me", tt.msg)
			assert.Equal(t, tt.show, d.Show)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.show, ShouldNotify(tt.state, "me", tt.msg))
		})
	}
}

func TestOwnMessagesNeverNotify(t *testing.T) {
	for _, fg := range []bool{true, false} {
		for _, open := range []string{"", "x", "y"} {
			state := State{Foreground: fg, OpenConversationID: open}
			assert.False(t, ShouldNotify(state, "me", models.Message{SenderID: "me", ConversationID: "x"}))
		}
	}
}

func TestAppStateCloseOnlyMatching(t *testing.T) {
	app := NewAppState()
	assert.True(t, app.Snapshot().Foreground)

	app.SetOpenConversation("b")
	app.CloseConversation("a")
	assert.Equal(t, "b", app.Snapshot().OpenConversationID)

	app.CloseConversation("b")
	assert.Empty(t, app.Snapshot().OpenConversationID)

	app.SetForeground(false)
	assert.False(t, app.Snapshot().Foreground)
}
