package api

import (
	"context"
	"net/http"
	"net/url"

	"social-client/internal/models"
)

func (c *Client) Notifications(ctx context.Context, cursor string, limit int) (models.Page[models.Notification], error) {
	var page models.Page[models.Notification]
	err := c.execute(ctx, call{method: http.MethodGet, route: "/notifications", path: "/notifications", query: pageQuery(cursor, limit), out: &page})
	return page, err
}

func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var resp models.UnreadCount
	err := c.execute(ctx, call{method: http.MethodGet, route: "/notifications/unread-count", path: "/notifications/unread-count", out: &resp})
	return resp.Count, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.execute(ctx, call{method: http.MethodPost, route: "/notifications/:id/read", path: "/notifications/" + url.PathEscape(id) + "/read"})
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.execute(ctx, call{method: http.MethodPost, route: "/notifications/read-all", path: "/notifications/read-all"})
}
