package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"social-client/internal/models"
	"social-client/internal/notify"
	"social-client/internal/observability"
	"social-client/internal/policy"
)

const (
	writeWait          = 10 * time.Second
	maxMessageSize     = 1 << 20
	messageReplay      = 10
	notificationReplay = 1
	wsRoutingKey       = "ws_events.client"
)

// ErrNoSession is returned by Connect when there is no access token to authenticate with.
var ErrNoSession = errors.New("realtime: no access token")

// Identity supplies the handshake token and the current user.
type Identity interface {
	AccessToken() string
	UserID() string
}

// Options configures the realtime connection.
type Options struct {
	URL               string
	ReconnectDelay    time.Duration
	ReconnectAttempts int
	HandshakeTimeout  time.Duration
}

// Manager owns the single realtime connection and fans inbound events out to two streams.
type Manager struct {
	opts     Options
	identity Identity
	app      *policy.AppState
	notifier notify.Notifier
	dialer   *websocket.Dialer

	// connectMu serializes Connect; mu is never held across network calls.
	connectMu sync.Mutex

	mu     sync.Mutex
	conn   *websocket.Conn
	info   ConnInfo
	cancel context.CancelFunc
	done   chan struct{}
	rooms  map[string]struct{}

	writeMu sync.Mutex

	messages      *Stream[models.Message]
	notifications *Stream[models.NotificationEvent]
}

// NewManager creates a disconnected manager.
func NewManager(opts Options, identity Identity, app *policy.AppState, notifier notify.Notifier) *Manager {
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	return &Manager{
		opts:          opts,
		identity:      identity,
		app:           app,
		notifier:      notifier,
		dialer:        &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		rooms:         make(map[string]struct{}),
		messages:      NewStream[models.Message]("messages", messageReplay),
		notifications: NewStream[models.NotificationEvent]("notifications", notificationReplay),
	}
}

// Connect opens the connection. It is a no-op while a connection (or reconnect loop) is active.
func (m *Manager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.Lock()
	active := m.cancel != nil
	m.mu.Unlock()
	if active {
		return nil
	}

	conn, err := m.dial(ctx)
	if err != nil {
		m.lifecycle(models.EventConnectError, ConnInfo{UserID: m.identity.UserID(), URL: m.opts.URL}, err.Error())
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.attach(conn, 0)
	info := m.info
	m.mu.Unlock()

	m.lifecycle(models.EventConnect, info, "")
	go m.run(runCtx, conn, done)
	return nil
}

// Disconnect closes the connection and cancels every stream subscription.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel, conn, done := m.cancel, m.conn, m.done
	info := m.info
	m.cancel = nil
	m.conn = nil
	m.rooms = make(map[string]struct{})
	if cancel != nil {
		cancel()
	}
	m.mu.Unlock()

	if conn != nil {
		m.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"),
			time.Now().Add(writeWait))
		m.writeMu.Unlock()
		conn.Close()
	}
	if cancel != nil && done != nil {
		<-done
		observability.SetWSConnected(false)
		m.lifecycle(models.EventDisconnect, info, "client disconnect")
	}

	m.messages.Reset()
	m.notifications.Reset()
}

// Connected reports whether a connection is currently up.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Info describes the current connection.
func (m *Manager) Info() ConnInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// JoinConversation subscribes the connection to a conversation room.
// Blank ids are dropped; without a connection it does nothing.
func (m *Manager) JoinConversation(conversationID string) {
	m.room(models.EventJoinConversation, conversationID)
}

// LeaveConversation unsubscribes the connection from a conversation room.
func (m *Manager) LeaveConversation(conversationID string) {
	m.room(models.EventLeaveConversation, conversationID)
}

// JoinAllConversations joins every room when connected and reports whether it did.
// Callers retry after connecting when it returns false.
func (m *Manager) JoinAllConversations(conversationIDs []string) bool {
	if !m.Connected() {
		return false
	}
	for _, id := range conversationIDs {
		m.JoinConversation(id)
	}
	return true
}

// SubscribeMessages delivers the last few messages and then every new one.
func (m *Manager) SubscribeMessages() *Subscription[models.Message] {
	return m.messages.Subscribe()
}

// SubscribeNotifications delivers the latest notification event and then every new one.
func (m *Manager) SubscribeNotifications() *Subscription[models.NotificationEvent] {
	return m.notifications.Subscribe()
}

func (m *Manager) room(event, conversationID string) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return
	}

	m.mu.Lock()
	conn := m.conn
	if conn != nil {
		if event == models.EventJoinConversation {
			m.rooms[conversationID] = struct{}{}
		} else {
			delete(m.rooms, conversationID)
		}
	}
	m.mu.Unlock()
	if conn == nil {
		return
	}

	if err := m.emit(conn, event, models.RoomPayload{ConversationID: conversationID}); err != nil {
		log.Printf("ws: %s %s failed: %v", event, conversationID, err)
	}
}

func (m *Manager) emit(conn *websocket.Conn, event string, data any) error {
	payload, err := encodeFrame(event, data)
	if err != nil {
		return err
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (m *Manager) dial(ctx context.Context) (*websocket.Conn, error) {
	token := m.identity.AccessToken()
	if token == "" {
		return nil, ErrNoSession
	}
	target, err := withToken(m.opts.URL, token)
	if err != nil {
		return nil, fmt.Errorf("realtime url: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := m.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial realtime: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial realtime: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)
	return conn, nil
}

// attach records conn as the live connection. m.mu must be held.
func (m *Manager) attach(conn *websocket.Conn, attempt int) {
	m.conn = conn
	m.info = ConnInfo{
		ConnID:      newConnID(),
		UserID:      m.identity.UserID(),
		URL:         m.opts.URL,
		Attempt:     attempt,
		ConnectedAt: time.Now(),
	}
	observability.SetWSConnected(true)
}

func (m *Manager) run(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		err := m.readLoop(conn)
		if ctx.Err() != nil {
			return
		}

		m.mu.Lock()
		info := m.info
		if m.conn == conn {
			m.conn = nil
		}
		m.mu.Unlock()
		conn.Close()
		observability.SetWSConnected(false)
		m.lifecycle(models.EventDisconnect, info, err.Error())

		next := m.reconnect(ctx)
		if next == nil {
			m.mu.Lock()
			failed := m.done == done && ctx.Err() == nil
			if failed {
				m.cancel = nil
			}
			m.mu.Unlock()
			if failed {
				m.lifecycle(models.EventReconnectFailed, info, "attempts exhausted")
			}
			return
		}
		conn = next
	}
}

func (m *Manager) reconnect(ctx context.Context) *websocket.Conn {
	for attempt := 1; attempt <= m.opts.ReconnectAttempts; attempt++ {
		m.lifecycle(models.EventReconnectAttempt, ConnInfo{UserID: m.identity.UserID(), URL: m.opts.URL, Attempt: attempt}, "")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.opts.ReconnectDelay):
		}

		conn, err := m.dial(ctx)
		if err != nil {
			log.Printf("ws: reconnect attempt %d failed: %v", attempt, err)
			continue
		}

		m.mu.Lock()
		if ctx.Err() != nil {
			m.mu.Unlock()
			conn.Close()
			return nil
		}
		m.attach(conn, attempt)
		info := m.info
		rooms := make([]string, 0, len(m.rooms))
		for id := range m.rooms {
			rooms = append(rooms, id)
		}
		m.mu.Unlock()

		m.lifecycle(models.EventReconnect, info, "")
		for _, id := range rooms {
			if err := m.emit(conn, models.EventJoinConversation, models.RoomPayload{ConversationID: id}); err != nil {
				log.Printf("ws: rejoin %s failed: %v", id, err)
			}
		}
		return conn
	}
	return nil
}

func (m *Manager) readLoop(conn *websocket.Conn) error {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		frame, err := decodeFrame(payload)
		if err != nil {
			log.Printf("ws: malformed frame: %v", err)
			continue
		}
		m.dispatch(frame)
	}
}

func (m *Manager) dispatch(frame Frame) {
	observability.IncWSEvent(frame.Event)
	switch frame.Event {
	case models.EventConnected:
		log.Printf("ws: server acknowledged connection")
	case models.EventNewMessage:
		var msg models.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			log.Printf("ws: bad %s payload: %v", frame.Event, err)
			return
		}
		m.messages.Publish(msg)
		m.notifyMessage(msg)
	case models.EventNewNotification:
		var evt models.NotificationEvent
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			log.Printf("ws: bad %s payload: %v", frame.Event, err)
			return
		}
		m.notifications.Publish(evt)
	default:
		log.Printf("ws: ignoring event %q", frame.Event)
	}
}

func (m *Manager) notifyMessage(msg models.Message) {
	decision := policy.Evaluate(m.app.Snapshot(), m.identity.UserID(), msg)
	if !decision.Show {
		observability.IncLocalNotification("suppressed")
		return
	}
	observability.IncLocalNotification("shown")

	title := msg.SenderName
	if title == "" {
		title = "New message"
	}
	err := m.notifier.Show(context.Background(), notify.Notification{
		Channel:        notify.DefaultChannel,
		Title:          title,
		Body:           msg.Content,
		ConversationID: msg.ConversationID,
	})
	if err != nil {
		log.Printf("ws: local notification failed: %v", err)
	}
}

func (m *Manager) lifecycle(event string, info ConnInfo, reason string) {
	if reason != "" {
		log.Printf("ws: %s conn_id=%s attempt=%d reason=%s", event, info.ConnID, info.Attempt, reason)
	} else {
		log.Printf("ws: %s conn_id=%s attempt=%d", event, info.ConnID, info.Attempt)
	}
	observability.IncWSEvent(event)

	var connectedFor time.Duration
	if !info.ConnectedAt.IsZero() {
		connectedFor = time.Since(info.ConnectedAt)
	}
	_ = observability.PublishEvent(context.Background(), wsRoutingKey, observability.WSEvent(event, info.UserID, reason, connectedFor))
}
