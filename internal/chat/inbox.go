package chat

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"social-client/internal/api"
	"social-client/internal/models"
	"social-client/internal/policy"
	"social-client/internal/ws"
)

// Identity reports the signed-in user.
type Identity interface {
	UserID() string
}

// Inbox keeps the conversation list ordered by recent activity with per-conversation unread counts.
type Inbox struct {
	api      api.ChatAPI
	realtime ws.MessageChannel
	app      *policy.AppState
	identity Identity
	now      func() time.Time

	mu            sync.Mutex
	conversations []models.Conversation
	seen          map[string]struct{}
	sub           *ws.Subscription[models.Message]
	done          chan struct{}
	changes       signal
}

func NewInbox(chatAPI api.ChatAPI, realtime ws.MessageChannel, app *policy.AppState, identity Identity) *Inbox {
	return &Inbox{
		api:      chatAPI,
		realtime: realtime,
		app:      app,
		identity: identity,
		now:      time.Now,
		seen:     make(map[string]struct{}),
		changes:  newSignal(),
	}
}

// Load replaces the list with the server's and joins every conversation room.
func (in *Inbox) Load(ctx context.Context) error {
	list, err := in.api.Conversations(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	ids := make([]string, 0, len(list))
	for _, conv := range list {
		ids = append(ids, conv.ID)
	}

	in.mu.Lock()
	in.conversations = list
	in.mu.Unlock()
	in.changes.fire()

	if !in.realtime.JoinAllConversations(ids) {
		log.Printf("inbox: realtime not connected, rooms not joined count=%d", len(ids))
	}
	return nil
}

// Start applies realtime messages to the list until Stop is called.
func (in *Inbox) Start() {
	in.mu.Lock()
	defer in.mu.Unlock()
	// a reset stream closes the old subscription and its listener exits on its own
	if in.sub != nil && !in.sub.Closed() {
		return
	}
	sub := in.realtime.SubscribeMessages()
	done := make(chan struct{})
	in.sub, in.done = sub, done
	go func() {
		defer close(done)
		for msg := range sub.C {
			if in.apply(msg) {
				in.changes.fire()
			}
		}
	}()
}

func (in *Inbox) Stop() {
	in.mu.Lock()
	sub, done := in.sub, in.done
	in.sub, in.done = nil, nil
	in.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Cancel()
	<-done
}

// Reset stops realtime delivery and forgets every conversation.
func (in *Inbox) Reset() {
	in.Stop()
	in.mu.Lock()
	in.conversations = nil
	in.seen = make(map[string]struct{})
	in.mu.Unlock()
	in.changes.fire()
}

// MarkRead zeroes the unread count locally, then acknowledges remotely.
// A failed acknowledgement is returned and not rolled back.
func (in *Inbox) MarkRead(ctx context.Context, conversationID string) error {
	in.mu.Lock()
	if idx := in.indexOf(conversationID); idx >= 0 {
		in.conversations[idx].UnreadCount = 0
	}
	in.mu.Unlock()
	in.changes.fire()

	return in.api.MarkConversationRead(ctx, conversationID)
}

func (in *Inbox) Conversations() []models.Conversation {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]models.Conversation(nil), in.conversations...)
}

func (in *Inbox) TotalUnread() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	total := 0
	for _, conv := range in.conversations {
		total += conv.UnreadCount
	}
	return total
}

func (in *Inbox) Changes() <-chan struct{} {
	return in.changes
}

func (in *Inbox) apply(msg models.Message) bool {
	if msg.ConversationID == "" {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	if msg.ID != "" {
		if _, ok := in.seen[msg.ID]; ok {
			return false
		}
		in.seen[msg.ID] = struct{}{}
	}

	var conv models.Conversation
	idx := in.indexOf(msg.ConversationID)
	if idx >= 0 {
		conv = in.conversations[idx]
		// replayed messages the listing already reflects
		if !msg.CreatedAt.IsZero() && !msg.CreatedAt.After(conv.UpdatedAt) {
			return false
		}
		in.conversations = append(in.conversations[:idx], in.conversations[idx+1:]...)
	} else {
		conv = models.Conversation{
			ID:   msg.ConversationID,
			Type: models.ConversationDirect,
			Name: msg.SenderName,
		}
	}

	conv.LastMessage = msg.Content
	conv.UpdatedAt = msg.CreatedAt
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = in.now()
	}
	if msg.SenderID != in.identity.UserID() && in.app.Snapshot().OpenConversationID != conv.ID {
		conv.UnreadCount++
	}

	in.conversations = append([]models.Conversation{conv}, in.conversations...)
	return true
}

func (in *Inbox) indexOf(conversationID string) int {
	for i, conv := range in.conversations {
		if conv.ID == conversationID {
			return i
		}
	}
	return -1
}
