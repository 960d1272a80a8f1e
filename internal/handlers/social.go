package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"social-client/internal/api"
	"social-client/internal/models"
)

const defaultPageLimit = 20

// SocialHandler proxies feed, post, comment, follow and group calls to the backend.
type SocialHandler struct {
	api api.SocialAPI
}

func NewSocialHandler(socialAPI api.SocialAPI) *SocialHandler {
	return &SocialHandler{api: socialAPI}
}

func (h *SocialHandler) Register(router gin.IRouter) {
	router.GET("/feed", h.Feed)
	router.POST("/posts", h.CreatePost)
	router.GET("/posts/:post_id", h.GetPost)
	router.DELETE("/posts/:post_id", h.DeletePost)
	router.POST("/posts/:post_id/like", h.LikePost)
	router.DELETE("/posts/:post_id/like", h.UnlikePost)
	router.GET("/posts/:post_id/comments", h.Comments)
	router.POST("/posts/:post_id/comments", h.CreateComment)
	router.POST("/comments/:comment_id/like", h.LikeComment)
	router.POST("/users/:user_id/follow", h.Follow)
	router.DELETE("/users/:user_id/follow", h.Unfollow)
	router.GET("/users/:user_id/followers", h.Followers)
	router.GET("/users/:user_id/following", h.Following)
	router.POST("/groups", h.CreateGroup)
}

func (h *SocialHandler) Feed(c *gin.Context) {
	limit, ok := pageLimit(c)
	if !ok {
		return
	}
	page, err := h.api.Feed(c.Request.Context(), c.Query("cursor"), limit)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *SocialHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	post, err := h.api.CreatePost(c.Request.Context(), req)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *SocialHandler) GetPost(c *gin.Context) {
	post, err := h.api.GetPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *SocialHandler) DeletePost(c *gin.Context) {
	respondEmpty(c, h.api.DeletePost(c.Request.Context(), c.Param("post_id")))
}

func (h *SocialHandler) LikePost(c *gin.Context) {
	respondEmpty(c, h.api.LikePost(c.Request.Context(), c.Param("post_id")))
}

func (h *SocialHandler) UnlikePost(c *gin.Context) {
	respondEmpty(c, h.api.UnlikePost(c.Request.Context(), c.Param("post_id")))
}

func (h *SocialHandler) Comments(c *gin.Context) {
	limit, ok := pageLimit(c)
	if !ok {
		return
	}
	page, err := h.api.Comments(c.Request.Context(), c.Param("post_id"), c.Query("cursor"), limit)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *SocialHandler) CreateComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	comment, err := h.api.CreateComment(c.Request.Context(), c.Param("post_id"), req)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *SocialHandler) LikeComment(c *gin.Context) {
	respondEmpty(c, h.api.LikeComment(c.Request.Context(), c.Param("comment_id")))
}

func (h *SocialHandler) Follow(c *gin.Context) {
	respondEmpty(c, h.api.Follow(c.Request.Context(), c.Param("user_id")))
}

func (h *SocialHandler) Unfollow(c *gin.Context) {
	respondEmpty(c, h.api.Unfollow(c.Request.Context(), c.Param("user_id")))
}

func (h *SocialHandler) Followers(c *gin.Context) {
	limit, ok := pageLimit(c)
	if !ok {
		return
	}
	page, err := h.api.Followers(c.Request.Context(), c.Param("user_id"), c.Query("cursor"), limit)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *SocialHandler) Following(c *gin.Context) {
	limit, ok := pageLimit(c)
	if !ok {
		return
	}
	page, err := h.api.Following(c.Request.Context(), c.Param("user_id"), c.Query("cursor"), limit)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *SocialHandler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	conv, err := h.api.CreateGroup(c.Request.Context(), req)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func pageLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultPageLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	return n, true
}

func respondEmpty(c *gin.Context, err error) {
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeAPIError maps backend failures to a status for the local caller.
func writeAPIError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	var apiErr *api.APIError
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, api.ErrSessionExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, api.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, api.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": api.UserMessage(err)})
}
