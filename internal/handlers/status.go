package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-client/internal/api"
	"social-client/internal/middleware"
	"social-client/internal/models"
	"social-client/internal/observability"
	"social-client/internal/policy"
	"social-client/internal/telemetry"
	"social-client/internal/ws"
)

type SessionView interface {
	UserID() string
	LoggedIn() bool
}

type RealtimeView interface {
	Connected() bool
	Info() ws.ConnInfo
}

type NotificationView interface {
	Unread() int
}

type InboxView interface {
	Conversations() []models.Conversation
	TotalUnread() int
	MarkRead(ctx context.Context, conversationID string) error
}

// StatusHandler exposes the client's local state and app lifecycle toggles.
type StatusHandler struct {
	sessions      SessionView
	realtime      RealtimeView
	notifications NotificationView
	inbox         InboxView
	app           *policy.AppState
	started       time.Time
}

func NewStatusHandler(sessions SessionView, realtime RealtimeView, notifications NotificationView, inbox InboxView, app *policy.AppState) *StatusHandler {
	return &StatusHandler{
		sessions:      sessions,
		realtime:      realtime,
		notifications: notifications,
		inbox:         inbox,
		app:           app,
		started:       time.Now(),
	}
}

type RouterOptions struct {
	ServiceName string
	Token       string
	Debug       bool
	Emitter     *telemetry.AuditEmitter
	Search      *SearchHandler
	Chat        *ChatHandler
	Social      *SocialHandler
	Session     *SessionHandler
}

// NewRouter builds the status server engine.
func NewRouter(h *StatusHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(opts.ServiceName))
	router.Use(RequestID())
	router.Use(observability.StatusMetricsMiddleware())

	router.GET("/healthz", h.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/state", h.State)

	guarded := router.Group("/", middleware.BearerToken(opts.Token))
	guarded.POST("/app/foreground", h.Foreground)
	guarded.POST("/app/background", h.Background)
	guarded.POST("/conversations/:conversation_id/read", h.MarkConversationRead)

	if opts.Search != nil {
		opts.Search.Register(guarded)
	}
	if opts.Chat != nil {
		opts.Chat.Register(guarded)
	}
	if opts.Social != nil {
		opts.Social.Register(guarded)
	}
	if opts.Session != nil {
		opts.Session.Register(guarded)
	}
	RegisterDebugRoutes(guarded, opts.Emitter, h.sessions, opts.Debug)
	return router
}

func (h *StatusHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"logged_in": h.sessions.LoggedIn(),
		"connected": h.realtime.Connected(),
	})
}

func (h *StatusHandler) State(c *gin.Context) {
	info := h.realtime.Info()
	realtime := gin.H{"connected": h.realtime.Connected()}
	if info.ConnID != "" {
		realtime["conn_id"] = info.ConnID
		realtime["attempt"] = info.Attempt
		realtime["connected_at"] = info.ConnectedAt
	}

	app := h.app.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"user_id":  h.sessions.UserID(),
		"realtime": realtime,
		"app": gin.H{
			"foreground":           app.Foreground,
			"open_conversation_id": app.OpenConversationID,
		},
		"unread_notifications": h.notifications.Unread(),
		"unread_messages":      h.inbox.TotalUnread(),
		"conversations":        h.inbox.Conversations(),
	})
}

func (h *StatusHandler) Foreground(c *gin.Context) {
	h.app.SetForeground(true)
	c.JSON(http.StatusOK, gin.H{"foreground": true})
}

func (h *StatusHandler) Background(c *gin.Context) {
	h.app.SetForeground(false)
	c.JSON(http.StatusOK, gin.H{"foreground": false})
}

func (h *StatusHandler) MarkConversationRead(c *gin.Context) {
	conversationID := strings.TrimSpace(c.Param("conversation_id"))
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
		return
	}
	if err := h.inbox.MarkRead(c.Request.Context(), conversationID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": api.UserMessage(err)})
		return
	}
	c.Status(http.StatusNoContent)
}
