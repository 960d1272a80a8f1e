package api

import (
	"context"
	"net/http"
	"net/url"

	"social-client/internal/models"
)

func (c *Client) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := c.execute(ctx, call{method: http.MethodGet, route: "/users/:id", path: "/users/" + url.PathEscape(userID), out: &user})
	return user, err
}

func (c *Client) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	q := pageQuery("", limit)
	q.Set("q", query)
	var resp struct {
		Users []models.User `json:"users"`
	}
	err := c.execute(ctx, call{method: http.MethodGet, route: "/users/search", path: "/users/search", query: q, out: &resp})
	return resp.Users, err
}

func (c *Client) Follow(ctx context.Context, userID string) error {
	return c.execute(ctx, call{method: http.MethodPost, route: "/users/:id/follow", path: "/users/" + url.PathEscape(userID) + "/follow"})
}

func (c *Client) Unfollow(ctx context.Context, userID string) error {
	return c.execute(ctx, call{method: http.MethodDelete, route: "/users/:id/follow", path: "/users/" + url.PathEscape(userID) + "/follow"})
}

func (c *Client) Followers(ctx context.Context, userID, cursor string, limit int) (models.Page[models.User], error) {
	var page models.Page[models.User]
	err := c.execute(ctx, call{method: http.MethodGet, route: "/users/:id/followers", path: "/users/" + url.PathEscape(userID) + "/followers", query: pageQuery(cursor, limit), out: &page})
	return page, err
}

func (c *Client) Following(ctx context.Context, userID, cursor string, limit int) (models.Page[models.User], error) {
	var page models.Page[models.User]
	err := c.execute(ctx, call{method: http.MethodGet, route: "/users/:id/following", path: "/users/" + url.PathEscape(userID) + "/following", query: pageQuery(cursor, limit), out: &page})
	return page, err
}
