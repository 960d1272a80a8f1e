package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"social-client/internal/api"
	"social-client/internal/models"
)

type UserSearcher interface {
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

type SearchHistory interface {
	Add(ctx context.Context, query string) error
	List(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, query string) error
	Clear(ctx context.Context) error
}

// SearchHandler runs user searches and remembers the queries.
type SearchHandler struct {
	users   UserSearcher
	history SearchHistory
}

func NewSearchHandler(users UserSearcher, history SearchHistory) *SearchHandler {
	return &SearchHandler{users: users, history: history}
}

func (h *SearchHandler) Register(router gin.IRouter) {
	router.GET("/search/users", h.SearchUsers)
	router.GET("/search/history", h.ListHistory)
	router.DELETE("/search/history", h.ClearHistory)
	router.DELETE("/search/history/:query", h.RemoveHistory)
}

func (h *SearchHandler) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	users, err := h.users.SearchUsers(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": api.UserMessage(err)})
		return
	}
	if err := h.history.Add(c.Request.Context(), query); err != nil {
		log.Printf("search history add failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *SearchHandler) ListHistory(c *gin.Context) {
	queries, err := h.history.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": queries})
}

func (h *SearchHandler) RemoveHistory(c *gin.Context) {
	if err := h.history.Remove(c.Request.Context(), c.Param("query")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update history"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SearchHandler) ClearHistory(c *gin.Context) {
	if err := h.history.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}
	c.Status(http.StatusNoContent)
}
