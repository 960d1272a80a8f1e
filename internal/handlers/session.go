package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-client/internal/api"
)

type LogoutAPI interface {
	Logout(ctx context.Context) error
}

// SessionHandler signs the user out and tears down session-scoped state.
type SessionHandler struct {
	api      LogoutAPI
	teardown func()
}

func NewSessionHandler(logoutAPI LogoutAPI, teardown func()) *SessionHandler {
	return &SessionHandler{api: logoutAPI, teardown: teardown}
}

func (h *SessionHandler) Register(router gin.IRouter) {
	router.POST("/logout", h.Logout)
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if h.teardown != nil {
		h.teardown()
	}
	if err := h.api.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": api.UserMessage(err)})
		return
	}
	c.Status(http.StatusNoContent)
}
