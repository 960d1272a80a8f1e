// Package chat holds the client-side state of the open conversation and the conversation inbox.
package chat

import (
	"context"
	"log"
	"strings"
	"sync"

	"social-client/internal/api"
	"social-client/internal/models"
	"social-client/internal/policy"
	"social-client/internal/ws"
)

const defaultPageSize = 30

// ReadAcknowledger acknowledges a conversation as read. Inbox clears its local unread
// count before the remote call.
type ReadAcknowledger interface {
	MarkRead(ctx context.Context, conversationID string) error
}

type Option func(*Controller)

// WithReadAcknowledger routes read acknowledgements through r instead of the API.
func WithReadAcknowledger(r ReadAcknowledger) Option {
	return func(c *Controller) {
		c.reads = r
	}
}

// Controller drives a single open conversation.
type Controller struct {
	api      api.ChatAPI
	realtime ws.MessageChannel
	app      *policy.AppState
	reads    ReadAcknowledger
	pageSize int

	// openMu is held for a whole leave-then-join sequence so at most one room is joined.
	openMu sync.Mutex

	mu      sync.Mutex
	state   State
	joined  string
	sub     *ws.Subscription[models.Message]
	subDone chan struct{}
	changes signal
}

func NewController(chatAPI api.ChatAPI, realtime ws.MessageChannel, app *policy.AppState, opts ...Option) *Controller {
	c := &Controller{
		api:      chatAPI,
		realtime: realtime,
		app:      app,
		pageSize: defaultPageSize,
		changes:  newSignal(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenAndLoad resolves the direct conversation with otherUserID and makes it the open one.
func (c *Controller) OpenAndLoad(ctx context.Context, otherUserID string) error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	c.detach()
	c.begin()

	conv, err := c.api.DirectConversation(ctx, otherUserID)
	if err != nil {
		c.fail(err)
		return err
	}
	return c.attach(ctx, conv)
}

// Open makes an existing conversation the open one.
func (c *Controller) Open(ctx context.Context, conversationID string) error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	c.detach()
	c.begin()

	conv, err := c.api.GetConversation(ctx, conversationID)
	if err != nil {
		c.fail(err)
		return err
	}
	return c.attach(ctx, conv)
}

// Send posts text to the open conversation.
func (c *Controller) Send(ctx context.Context, text, replyToID string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	convID := c.joined
	if convID != "" {
		c.state.Sending = true
		c.state.ErrorKind, c.state.Error = ErrorNone, ""
	}
	c.mu.Unlock()
	if convID == "" {
		return ErrNoConversation
	}
	c.changes.fire()

	msg, err := c.api.SendMessage(ctx, convID, models.SendMessageRequest{Content: text, ReplyToID: replyToID})
	if err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	if c.joined == convID {
		c.state.Messages, _ = prepend(c.state.Messages, msg)
	}
	c.mu.Unlock()
	c.changes.fire()

	if err := c.reload(ctx, convID); err != nil {
		log.Printf("chat: reload after send failed conversation=%s err=%v", convID, err)
	}
	c.markRead(ctx, convID)

	c.mu.Lock()
	c.state.Sending = false
	c.mu.Unlock()
	c.changes.fire()
	return nil
}

// LoadOlder fetches the next page and appends it to the tail.
func (c *Controller) LoadOlder(ctx context.Context) error {
	c.mu.Lock()
	convID, cursor := c.joined, c.state.NextCursor
	c.mu.Unlock()
	if convID == "" {
		return ErrNoConversation
	}
	if cursor == "" {
		return nil
	}

	page, err := c.api.Messages(ctx, convID, cursor, c.pageSize)
	if err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	if c.joined == convID {
		c.state.Messages = dedupe(append(c.state.Messages, page.Items...))
		c.state.NextCursor = page.NextCursor
	}
	c.mu.Unlock()
	c.changes.fire()
	return nil
}

// Close leaves the open conversation and resets the state.
func (c *Controller) Close() {
	c.openMu.Lock()
	defer c.openMu.Unlock()
	c.detach()
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()
	c.changes.fire()
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.Messages = append([]models.Message(nil), c.state.Messages...)
	if c.state.Conversation != nil {
		conv := *c.state.Conversation
		st.Conversation = &conv
	}
	return st
}

// Changes fires after every state change. Bursts are coalesced.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.state = State{Loading: true}
	c.mu.Unlock()
	c.changes.fire()
}

func (c *Controller) fail(err error) {
	kind, text := describe(err)
	c.mu.Lock()
	c.state.Loading = false
	c.state.Sending = false
	c.state.ErrorKind = kind
	c.state.Error = text
	c.mu.Unlock()
	c.changes.fire()
}

func (c *Controller) attach(ctx context.Context, conv models.Conversation) error {
	page, err := c.api.Messages(ctx, conv.ID, "", c.pageSize)
	if err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.state.Conversation = &conv
	c.state.Messages = dedupe(page.Items)
	c.state.NextCursor = page.NextCursor
	c.state.Loading = false
	c.mu.Unlock()
	c.changes.fire()

	c.markRead(ctx, conv.ID)

	c.realtime.JoinConversation(conv.ID)
	c.app.SetOpenConversation(conv.ID)
	sub := c.realtime.SubscribeMessages()
	done := make(chan struct{})

	c.mu.Lock()
	c.joined = conv.ID
	c.sub = sub
	c.subDone = done
	c.mu.Unlock()

	go c.listen(conv.ID, sub, done)
	return nil
}

// detach leaves the joined room and waits for its listener to exit, so no event
// for the old room is applied after this returns.
func (c *Controller) detach() {
	c.mu.Lock()
	joined, sub, done := c.joined, c.sub, c.subDone
	c.joined, c.sub, c.subDone = "", nil, nil
	c.mu.Unlock()

	if joined == "" {
		return
	}
	c.realtime.LeaveConversation(joined)
	if sub != nil {
		sub.Cancel()
	}
	if done != nil {
		<-done
	}
	c.app.CloseConversation(joined)
}

func (c *Controller) listen(convID string, sub *ws.Subscription[models.Message], done chan struct{}) {
	defer close(done)
	for msg := range sub.C {
		if msg.ConversationID != convID {
			continue
		}
		c.mu.Lock()
		added := false
		if c.joined == convID {
			c.state.Messages, added = prepend(c.state.Messages, msg)
		}
		c.mu.Unlock()
		if added {
			c.changes.fire()
		}
	}
}

func (c *Controller) reload(ctx context.Context, convID string) error {
	page, err := c.api.Messages(ctx, convID, "", c.pageSize)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.joined == convID {
		c.state.Messages = dedupe(page.Items)
		c.state.NextCursor = page.NextCursor
	}
	c.mu.Unlock()
	c.changes.fire()
	return nil
}

func (c *Controller) markRead(ctx context.Context, convID string) {
	var err error
	if c.reads != nil {
		err = c.reads.MarkRead(ctx, convID)
	} else {
		err = c.api.MarkConversationRead(ctx, convID)
	}
	if err != nil {
		log.Printf("chat: mark read failed conversation=%s err=%v", convID, err)
	}
}
