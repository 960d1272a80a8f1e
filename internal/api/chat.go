package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"social-client/internal/models"
)

func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var resp struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	err := c.execute(ctx, call{method: http.MethodGet, route: "/conversations", path: "/conversations", out: &resp})
	return resp.Conversations, err
}

// DirectConversation returns the direct conversation with userID, creating it if needed.
// The backend answers 403 when the users may not message each other.
func (c *Client) DirectConversation(ctx context.Context, userID string) (models.Conversation, error) {
	var conv models.Conversation
	req := models.StartDirectRequest{UserID: userID}
	if err := c.validate.Struct(req); err != nil {
		return conv, fmt.Errorf("invalid conversation request: %w", err)
	}
	err := c.execute(ctx, call{method: http.MethodPost, route: "/conversations/direct", path: "/conversations/direct", body: req, out: &conv})
	return conv, err
}

func (c *Client) CreateGroup(ctx context.Context, req models.CreateGroupRequest) (models.Conversation, error) {
	var conv models.Conversation
	if err := c.validate.Struct(req); err != nil {
		return conv, fmt.Errorf("invalid group: %w", err)
	}
	err := c.execute(ctx, call{method: http.MethodPost, route: "/conversations/group", path: "/conversations/group", body: req, out: &conv})
	return conv, err
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := c.execute(ctx, call{method: http.MethodGet, route: "/conversations/:id", path: "/conversations/" + url.PathEscape(conversationID), out: &conv})
	return conv, err
}

// Messages returns a page of messages, newest first.
func (c *Client) Messages(ctx context.Context, conversationID, cursor string, limit int) (models.Page[models.Message], error) {
	var page models.Page[models.Message]
	err := c.execute(ctx, call{method: http.MethodGet, route: "/conversations/:id/messages", path: "/conversations/" + url.PathEscape(conversationID) + "/messages", query: pageQuery(cursor, limit), out: &page})
	return page, err
}

func (c *Client) SendMessage(ctx context.Context, conversationID string, req models.SendMessageRequest) (models.Message, error) {
	var msg models.Message
	if err := c.validate.Struct(req); err != nil {
		return msg, fmt.Errorf("invalid message: %w", err)
	}
	err := c.execute(ctx, call{method: http.MethodPost, route: "/conversations/:id/messages", path: "/conversations/" + url.PathEscape(conversationID) + "/messages", body: req, out: &msg})
	return msg, err
}

func (c *Client) MarkConversationRead(ctx context.Context, conversationID string) error {
	return c.execute(ctx, call{method: http.MethodPost, route: "/conversations/:id/read", path: "/conversations/" + url.PathEscape(conversationID) + "/read"})
}
