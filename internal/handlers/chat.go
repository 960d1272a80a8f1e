package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"social-client/internal/api"
	"social-client/internal/chat"
	"social-client/internal/models"
)

type ChatSession interface {
	OpenAndLoad(ctx context.Context, otherUserID string) error
	Open(ctx context.Context, conversationID string) error
	Send(ctx context.Context, text, replyToID string) error
	LoadOlder(ctx context.Context) error
	Close()
	State() chat.State
}

// ChatHandler drives the open conversation over the status server.
type ChatHandler struct {
	session ChatSession
}

func NewChatHandler(session ChatSession) *ChatHandler {
	return &ChatHandler{session: session}
}

func (h *ChatHandler) Register(router gin.IRouter) {
	router.GET("/chat", h.State)
	router.POST("/chat/direct", h.StartDirect)
	router.POST("/chat/open/:conversation_id", h.Open)
	router.POST("/chat/messages", h.Send)
	router.POST("/chat/older", h.LoadOlder)
	router.DELETE("/chat", h.Close)
}

func (h *ChatHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.State())
}

func (h *ChatHandler) StartDirect(c *gin.Context) {
	var req models.StartDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if err := h.session.OpenAndLoad(c.Request.Context(), req.UserID); err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.State())
}

func (h *ChatHandler) Open(c *gin.Context) {
	conversationID := strings.TrimSpace(c.Param("conversation_id"))
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
		return
	}
	if err := h.session.Open(c.Request.Context(), conversationID); err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.State())
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.session.Send(c.Request.Context(), req.Content, req.ReplyToID); err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.session.State())
}

func (h *ChatHandler) LoadOlder(c *gin.Context) {
	if err := h.session.LoadOlder(c.Request.Context()); err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.State())
}

func (h *ChatHandler) Close(c *gin.Context) {
	h.session.Close()
	c.Status(http.StatusNoContent)
}

func writeChatError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrNoConversation):
		status = http.StatusConflict
	case errors.Is(err, api.ErrSessionExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, api.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, api.ErrNotFound):
		status = http.StatusNotFound
	}
	msg := err.Error()
	if status != http.StatusBadRequest && status != http.StatusConflict {
		msg = api.UserMessage(err)
	}
	c.JSON(status, gin.H{"error": msg})
}
