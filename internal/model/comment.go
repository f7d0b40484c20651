package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. ParentCommentID is assigned once at
// creation and never reassigned, so the comment graph is a forest by
// construction.
type Comment struct {
	ID              int64        `db:"id" json:"id"`
	PostID          int64        `db:"post_id" json:"post_id"`
	AuthorID        int64        `db:"author_id" json:"-"`
	Text            string       `db:"text" json:"text"`
	ParentCommentID *int64       `db:"parent_comment_id" json:"parent_comment_id,omitempty"`
	LikeCount       int          `db:"like_count" json:"like_count"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
	Author          *UserSummary `json:"author,omitempty"` // Joined field
	IsLiked         bool         `json:"is_liked"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Text            string `json:"text"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Text string `json:"text"`
}

// CommentPage is a page/size paginated comment listing.
type CommentPage struct {
	Comments []Comment `json:"comments"`
	Page     int       `json:"page"`
	Size     int       `json:"size"`
	HasNext  bool      `json:"has_next"`
}

// Comment constraints
const (
	MaxCommentLength = 2200
)

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrParentWrongPost = errors.New("parent comment does not belong to this post")
	ErrNotCommentOwner = errors.New("not the owner of this comment")
	ErrCommentRequired = errors.New("comment text is required")
	ErrCommentTooLong  = errors.New("comment text too long")
)
