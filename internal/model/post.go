package model

import (
	"errors"
	"time"
)

// Post represents a purchase-review post with its denormalized engagement counters.
type Post struct {
	ID           int64      `db:"id" json:"id"`
	AuthorID     int64      `db:"author_id" json:"author_id"`
	Text         string     `db:"text" json:"text"`
	PurchaseDate *time.Time `db:"purchase_date" json:"purchase_date,omitempty"`
	Price        *float64   `db:"price" json:"price,omitempty"`
	Currency     *string    `db:"currency" json:"currency,omitempty"`
	PlatformID   *int64     `db:"platform_id" json:"platform_id,omitempty"`
	ProductURL   *string    `db:"product_url" json:"product_url,omitempty"`
	Visibility   string     `db:"visibility" json:"visibility"`
	LikeCount    int        `db:"like_count" json:"like_count"`
	CommentCount int        `db:"comment_count" json:"comment_count"`
	RepostCount  int        `db:"repost_count" json:"repost_count"`
	ShareCount   int        `db:"share_count" json:"share_count"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`

	// Joined fields (not in posts table)
	Media    []PostMedia  `json:"media,omitempty"`
	Author   *UserSummary `json:"author,omitempty"`
	Platform *Platform    `json:"platform,omitempty"`
	IsLiked  bool         `json:"is_liked"`
}

// PostMedia represents a single media item attached to a post.
type PostMedia struct {
	ID        int64  `db:"id" json:"id"`
	PostID    int64  `db:"post_id" json:"-"`
	MediaURL  string `db:"media_url" json:"media_url"`
	MediaType string `db:"media_type" json:"media_type"` // "image" or "video"
	Position  int    `db:"position" json:"position"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Text         string     `json:"text"`
	PurchaseDate *time.Time `json:"purchase_date"`
	Price        *float64   `json:"price"`
	Currency     *string    `json:"currency"`
	PlatformID   *int64     `json:"platform_id"`
	ProductURL   *string    `json:"product_url"`
	Visibility   *string    `json:"visibility"`
	MediaURLs    []string   `json:"media_urls"` // Pre-uploaded media URLs
}

// UpdatePostRequest is the request body for editing a post. Nil fields are
// left unchanged.
type UpdatePostRequest struct {
	Text         *string    `json:"text"`
	Visibility   *string    `json:"visibility"`
	ProductURL   *string    `json:"product_url"`
	PurchaseDate *time.Time `json:"purchase_date"`
	Price        *float64   `json:"price"`
	Currency     *string    `json:"currency"`
}

// PostPage is a page/size paginated post listing.
type PostPage struct {
	Posts   []Post `json:"posts"`
	Page    int    `json:"page"`
	Size    int    `json:"size"`
	HasNext bool   `json:"has_next"`
}

// ToggleResult reports the outcome of a like toggle.
type ToggleResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likes_count"`
}

// RepostResult reports the outcome of a repost action.
type RepostResult struct {
	Reposted    bool `json:"reposted"`
	RepostCount int  `json:"reposts_count"`
}

// ShareResult reports the outcome of a share action.
type ShareResult struct {
	Shared     bool `json:"shared"`
	ShareCount int  `json:"shares_count"`
}

// Post constraints
const (
	MaxPostMediaCount   = 10
	MaxPostTextLength   = 5000
	DefaultVisibility   = "public"
	MinSearchKeywordLen = 2
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("not the owner of this post")
	ErrTextRequired    = errors.New("post text is required")
	ErrTextTooLong     = errors.New("post text too long")
	ErrTooManyMedia    = errors.New("too many media items")
	ErrKeywordTooShort = errors.New("search keyword too short")
	ErrAlreadyLiked    = errors.New("already liked")
	ErrNotLiked        = errors.New("not liked")
)
