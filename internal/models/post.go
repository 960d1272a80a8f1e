package models

import "time"

// Post is an item in the feed.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	Content      string    `json:"content"`
	ImageURLs    []string  `json:"image_urls,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	Liked        bool      `json:"liked"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreatePostRequest publishes a post.
type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required_without=ImageURLs,max=5000"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,max=10,dive,url"`
}

// Comment is a comment on a post, optionally replying to another comment.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	ParentID   string    `json:"parent_id,omitempty"`
	LikeCount  int       `json:"like_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateCommentRequest adds a comment to a post.
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,max=2000"`
	ParentID string `json:"parent_id,omitempty"`
}
