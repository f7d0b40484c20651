package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"spendshare/internal/broadcast"
	"spendshare/internal/model"
)

// postLikeStore persists likes on posts. Each Like and Unlike is one
// transaction: the like record and the denormalized counter move together,
// so the counter can never drift from the records under concurrency.
type postLikeStore struct {
	db *sqlx.DB
}

// NewPostLikeStore creates a like store bound to posts.
func NewPostLikeStore(db *sqlx.DB) *postLikeStore {
	return &postLikeStore{db: db}
}

func (s *postLikeStore) Kind() broadcast.TargetKind {
	return broadcast.TargetPost
}

// Target reports whether the post exists and its current like count.
func (s *postLikeStore) Target(ctx context.Context, targetID int64) (bool, int, error) {
	var likeCount int
	err := s.db.GetContext(ctx, &likeCount,
		`SELECT like_count FROM posts WHERE id = $1 AND deleted_at IS NULL`, targetID)
	if err == sql.ErrNoRows {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("get post like count: %w", err)
	}
	return true, likeCount, nil
}

// Liked reports whether the user currently likes the post.
func (s *postLikeStore) Liked(ctx context.Context, userID, targetID int64) (bool, error) {
	var liked bool
	err := s.db.GetContext(ctx, &liked,
		`SELECT EXISTS(SELECT 1 FROM post_likes WHERE user_id = $1 AND post_id = $2)`, userID, targetID)
	if err != nil {
		return false, fmt.Errorf("check post liked: %w", err)
	}
	return liked, nil
}

// Like inserts the like record and bumps the counter. Returns
// model.ErrAlreadyLiked when the unique constraint rejects a duplicate.
func (s *postLikeStore) Like(ctx context.Context, userID, targetID int64) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO post_likes (user_id, post_id) VALUES ($1, $2)`, userID, targetID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, model.ErrAlreadyLiked
		}
		return 0, fmt.Errorf("insert post like: %w", err)
	}

	var likeCount int
	err = tx.GetContext(ctx, &likeCount, `
		UPDATE posts SET like_count = like_count + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING like_count
	`, targetID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment post like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return likeCount, nil
}

// Unlike deletes the like record and drops the counter, floored at zero.
// Returns model.ErrNotLiked when there was no record to delete.
func (s *postLikeStore) Unlike(ctx context.Context, userID, targetID int64) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM post_likes WHERE user_id = $1 AND post_id = $2`, userID, targetID)
	if err != nil {
		return 0, fmt.Errorf("delete post like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, model.ErrNotLiked
	}

	var likeCount int
	err = tx.GetContext(ctx, &likeCount, `
		UPDATE posts SET like_count = GREATEST(like_count - 1, 0), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING like_count
	`, targetID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("decrement post like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return likeCount, nil
}

// commentLikeStore persists likes on comments. Same shape as postLikeStore
// with the comment tables.
type commentLikeStore struct {
	db *sqlx.DB
}

// NewCommentLikeStore creates a like store bound to comments.
func NewCommentLikeStore(db *sqlx.DB) *commentLikeStore {
	return &commentLikeStore{db: db}
}

func (s *commentLikeStore) Kind() broadcast.TargetKind {
	return broadcast.TargetComment
}

func (s *commentLikeStore) Target(ctx context.Context, targetID int64) (bool, int, error) {
	var likeCount int
	err := s.db.GetContext(ctx, &likeCount,
		`SELECT like_count FROM post_comments WHERE id = $1`, targetID)
	if err == sql.ErrNoRows {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("get comment like count: %w", err)
	}
	return true, likeCount, nil
}

func (s *commentLikeStore) Liked(ctx context.Context, userID, targetID int64) (bool, error) {
	var liked bool
	err := s.db.GetContext(ctx, &liked,
		`SELECT EXISTS(SELECT 1 FROM comment_likes WHERE user_id = $1 AND comment_id = $2)`, userID, targetID)
	if err != nil {
		return false, fmt.Errorf("check comment liked: %w", err)
	}
	return liked, nil
}

func (s *commentLikeStore) Like(ctx context.Context, userID, targetID int64) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO comment_likes (user_id, comment_id) VALUES ($1, $2)`, userID, targetID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, model.ErrAlreadyLiked
		}
		return 0, fmt.Errorf("insert comment like: %w", err)
	}

	var likeCount int
	err = tx.GetContext(ctx, &likeCount, `
		UPDATE post_comments SET like_count = like_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING like_count
	`, targetID)
	if err == sql.ErrNoRows {
		return 0, model.ErrCommentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment comment like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return likeCount, nil
}

func (s *commentLikeStore) Unlike(ctx context.Context, userID, targetID int64) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM comment_likes WHERE user_id = $1 AND comment_id = $2`, userID, targetID)
	if err != nil {
		return 0, fmt.Errorf("delete comment like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, model.ErrNotLiked
	}

	var likeCount int
	err = tx.GetContext(ctx, &likeCount, `
		UPDATE post_comments SET like_count = GREATEST(like_count - 1, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING like_count
	`, targetID)
	if err == sql.ErrNoRows {
		return 0, model.ErrCommentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("decrement comment like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return likeCount, nil
}
