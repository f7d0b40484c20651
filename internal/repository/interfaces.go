package repository

import (
	"context"
	"time"

	"spendshare/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, userID int64, displayName, bio *string) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type PlatformRepository interface {
	List(ctx context.Context) ([]model.Platform, error)
	GetByID(ctx context.Context, id int64) (*model.Platform, error)
}

type PostRepository interface {
	Create(ctx context.Context, authorID int64, req *model.CreatePostRequest) (*model.Post, error)
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	Update(ctx context.Context, postID, userID int64, req *model.UpdatePostRequest) (*model.Post, error)
	Delete(ctx context.Context, postID, userID int64) error
	// List returns up to limit posts, newest first. Callers pass size+1 to
	// detect whether another page exists.
	List(ctx context.Context, offset, limit int) ([]model.Post, error)
	ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]model.Post, error)
	// Search matches one or two lowercased keywords against post text,
	// author username, author display name and platform name.
	Search(ctx context.Context, keywords []string, offset, limit int) ([]model.Post, error)
	// TopByEngagement ranks posts by their denormalized counters. Serves
	// trending reads while the score cache is cold.
	TopByEngagement(ctx context.Context, limit int) ([]model.Post, error)
	// Repost and Share bump their counters and return the new value.
	Repost(ctx context.Context, postID int64) (int, error)
	Share(ctx context.Context, postID int64) (int, error)
	GetAuthorID(ctx context.Context, postID int64) (int64, error)
	// CheckLikes checks which posts the user has liked
	CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	Exists(ctx context.Context, postID int64) (bool, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

type CommentRepository interface {
	// Create inserts the comment and bumps the post's comment_count in one
	// transaction. Returns the comment and the post's new comment count.
	Create(ctx context.Context, postID, authorID int64, text string, parentID *int64) (*model.Comment, int, error)
	Update(ctx context.Context, commentID, userID int64, text string) (*model.Comment, error)
	// Delete removes the comment and its replies, then decrements the post's
	// comment_count by the number of rows removed, floored at zero. Returns
	// the post ID and the post's remaining comment count.
	Delete(ctx context.Context, commentID, userID int64) (postID int64, commentCount int, err error)
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	ListTopLevel(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error)
	ListReplies(ctx context.Context, parentID int64, offset, limit int) ([]model.Comment, error)
	ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]model.Comment, error)
	CheckLikes(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error)
}
