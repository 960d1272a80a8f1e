package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"social-client/internal/models"
)

// Feed returns the home feed page after cursor.
func (c *Client) Feed(ctx context.Context, cursor string, limit int) (models.Page[models.Post], error) {
	var page models.Page[models.Post]
	err := c.execute(ctx, call{method: http.MethodGet, route: "/feed", path: "/feed", query: pageQuery(cursor, limit), out: &page})
	return page, err
}

func (c *Client) CreatePost(ctx context.Context, req models.CreatePostRequest) (models.Post, error) {
	var post models.Post
	if err := c.validate.Struct(req); err != nil {
		return post, fmt.Errorf("invalid post: %w", err)
	}
	err := c.execute(ctx, call{method: http.MethodPost, route: "/posts", path: "/posts", body: req, out: &post})
	return post, err
}

func (c *Client) GetPost(ctx context.Context, postID string) (models.Post, error) {
	var post models.Post
	err := c.execute(ctx, call{method: http.MethodGet, route: "/posts/:id", path: "/posts/" + url.PathEscape(postID), out: &post})
	return post, err
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.execute(ctx, call{method: http.MethodDelete, route: "/posts/:id", path: "/posts/" + url.PathEscape(postID)})
}

func (c *Client) LikePost(ctx context.Context, postID string) error {
	return c.execute(ctx, call{method: http.MethodPost, route: "/posts/:id/like", path: "/posts/" + url.PathEscape(postID) + "/like"})
}

func (c *Client) UnlikePost(ctx context.Context, postID string) error {
	return c.execute(ctx, call{method: http.MethodDelete, route: "/posts/:id/like", path: "/posts/" + url.PathEscape(postID) + "/like"})
}

func (c *Client) Comments(ctx context.Context, postID, cursor string, limit int) (models.Page[models.Comment], error) {
	var page models.Page[models.Comment]
	err := c.execute(ctx, call{method: http.MethodGet, route: "/posts/:id/comments", path: "/posts/" + url.PathEscape(postID) + "/comments", query: pageQuery(cursor, limit), out: &page})
	return page, err
}

func (c *Client) CreateComment(ctx context.Context, postID string, req models.CreateCommentRequest) (models.Comment, error) {
	var comment models.Comment
	if err := c.validate.Struct(req); err != nil {
		return comment, fmt.Errorf("invalid comment: %w", err)
	}
	err := c.execute(ctx, call{method: http.MethodPost, route: "/posts/:id/comments", path: "/posts/" + url.PathEscape(postID) + "/comments", body: req, out: &comment})
	return comment, err
}

func (c *Client) LikeComment(ctx context.Context, commentID string) error {
	return c.execute(ctx, call{method: http.MethodPost, route: "/comments/:id/like", path: "/comments/" + url.PathEscape(commentID) + "/like"})
}
