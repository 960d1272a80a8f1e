// Package notifications keeps the notification list and unread badge in sync with the
// backend and the realtime channel.
package notifications

import (
	"context"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"social-client/internal/api"
	"social-client/internal/models"
	"social-client/internal/ws"
)

const (
	avatarBaseURL   = "https://ui-avatars.com/api/"
	placeholderName = "Someone"
)

// State is a snapshot of the notification list, newest first.
type State struct {
	Items      []models.Notification
	Unread     int
	NextCursor string
	Loading    bool
	Error      string
}

type Controller struct {
	api      api.NotificationAPI
	realtime ws.NotificationChannel
	now      func() time.Time

	mu      sync.Mutex
	state   State
	sub     *ws.Subscription[models.NotificationEvent]
	cancel  context.CancelFunc
	done    chan struct{}
	pending sync.WaitGroup
	changes chan struct{}
}

func NewController(notificationAPI api.NotificationAPI, realtime ws.NotificationChannel) *Controller {
	return &Controller{
		api:      notificationAPI,
		realtime: realtime,
		now:      time.Now,
		changes:  make(chan struct{}, 1),
	}
}

// FetchNotifications replaces the list with a page from the server.
func (c *Controller) FetchNotifications(ctx context.Context, cursor string, limit int) error {
	c.mu.Lock()
	c.state.Loading = true
	c.mu.Unlock()
	c.changed()

	page, err := c.api.Notifications(ctx, cursor, limit)

	c.mu.Lock()
	c.state.Loading = false
	if err != nil {
		c.state.Error = api.UserMessage(err)
	} else {
		items := make([]models.Notification, 0, len(page.Items))
		for _, n := range page.Items {
			if n.Resolution == "" {
				n.Resolution = models.ResolutionResolved
			}
			items = append(items, n)
		}
		c.state.Items = items
		c.state.NextCursor = page.NextCursor
		c.state.Error = ""
	}
	c.mu.Unlock()
	c.changed()
	return err
}

func (c *Controller) FetchUnreadCount(ctx context.Context) error {
	count, err := c.api.UnreadNotificationCount(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.state.Unread = count
	c.mu.Unlock()
	c.changed()
	return nil
}

// MarkAsRead flags the entry read and decrements the badge. Marking an already read entry
// changes nothing locally. The remote acknowledgement is fire and forget.
func (c *Controller) MarkAsRead(ctx context.Context, id string) {
	c.mu.Lock()
	if idx := c.indexOf(id); idx >= 0 && !c.state.Items[idx].Read {
		c.state.Items[idx].Read = true
		if c.state.Unread > 0 {
			c.state.Unread--
		}
	}
	c.mu.Unlock()
	c.changed()

	if err := c.api.MarkNotificationRead(ctx, id); err != nil {
		log.Printf("notifications: mark read failed id=%s err=%v", id, err)
	}
}

func (c *Controller) MarkAllAsRead(ctx context.Context) {
	c.mu.Lock()
	for i := range c.state.Items {
		c.state.Items[i].Read = true
	}
	c.state.Unread = 0
	c.mu.Unlock()
	c.changed()

	if err := c.api.MarkAllNotificationsRead(ctx); err != nil {
		log.Printf("notifications: mark all read failed err=%v", err)
	}
}

// Start consumes realtime notifications until Stop is called.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil {
		if !c.sub.Closed() {
			return
		}
		// the stream was reset under us; the old listener has exited or is draining
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := c.realtime.SubscribeNotifications()
	done := make(chan struct{})
	c.sub, c.cancel, c.done = sub, cancel, done

	go func() {
		defer close(done)
		for evt := range sub.C {
			c.handle(ctx, evt)
		}
	}()
}

// Stop cancels the subscription and waits for in-flight profile lookups.
func (c *Controller) Stop() {
	c.mu.Lock()
	sub, cancel, done := c.sub, c.cancel, c.done
	c.sub, c.cancel, c.done = nil, nil, nil
	c.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Cancel()
	<-done
	cancel()
	c.pending.Wait()
}

// Reset stops realtime delivery and forgets every notification and the badge count.
func (c *Controller) Reset() {
	c.Stop()
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.Items = append([]models.Notification(nil), c.state.Items...)
	return st
}

func (c *Controller) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Unread
}

func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

func (c *Controller) handle(ctx context.Context, evt models.NotificationEvent) {
	if evt.ID == "" {
		return
	}
	c.mu.Lock()
	if c.indexOf(evt.ID) >= 0 {
		c.mu.Unlock()
		return
	}
	name := evt.ActorName
	if strings.TrimSpace(name) == "" {
		name = placeholderName
	}
	placeholder := models.Notification{
		ID:         evt.ID,
		Type:       evt.Type,
		ActorID:    evt.ActorID,
		ActorName:  name,
		Message:    evt.Message,
		PostID:     evt.PostID,
		AvatarURL:  syntheticAvatar(name),
		CreatedAt:  c.now(),
		Resolution: models.ResolutionPending,
	}
	c.state.Items = append([]models.Notification{placeholder}, c.state.Items...)
	c.state.Unread++
	c.mu.Unlock()
	c.changed()

	if evt.ActorID == "" {
		c.patch(evt.ID, func(n *models.Notification) { n.Resolution = models.ResolutionFailed })
		return
	}
	c.pending.Add(1)
	go c.resolve(ctx, evt.ID, evt.ActorID)
}

func (c *Controller) resolve(ctx context.Context, id, actorID string) {
	defer c.pending.Done()
	user, err := c.api.GetUser(ctx, actorID)
	if err != nil {
		log.Printf("notifications: actor lookup failed id=%s actor=%s err=%v", id, actorID, err)
		c.patch(id, func(n *models.Notification) { n.Resolution = models.ResolutionFailed })
		return
	}
	c.patch(id, func(n *models.Notification) {
		if name := user.Name(); name != "" {
			n.ActorName = name
		}
		n.AvatarURL = user.AvatarURL
		if n.AvatarURL == "" {
			n.AvatarURL = syntheticAvatar(n.ActorName)
		}
		n.Resolution = models.ResolutionResolved
	})
}

// patch updates the entry with the given id in place, if it is still listed.
func (c *Controller) patch(id string, fn func(*models.Notification)) {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx >= 0 {
		fn(&c.state.Items[idx])
	}
	c.mu.Unlock()
	if idx >= 0 {
		c.changed()
	}
}

func (c *Controller) indexOf(id string) int {
	for i, n := range c.state.Items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) changed() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// syntheticAvatar builds an initials avatar from the first word of name.
func syntheticAvatar(name string) string {
	fragment := placeholderName
	if fields := strings.Fields(name); len(fields) > 0 {
		fragment = fields[0]
	}
	q := url.Values{}
	q.Set("name", fragment)
	q.Set("background", "random")
	return avatarBaseURL + "?" + q.Encode()
}
