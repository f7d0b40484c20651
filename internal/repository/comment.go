package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"spendshare/internal/model"
)

const commentColumns = `
	id, post_id, author_id, text, parent_comment_id, like_count, created_at, updated_at
`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and bumps the post's comment_count in one
// transaction. The counter update doubles as the post existence check.
func (r *commentRepository) Create(ctx context.Context, postID, authorID int64, text string, parentID *int64) (*model.Comment, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var commentCount int
	err = tx.GetContext(ctx, &commentCount, `
		UPDATE posts SET comment_count = comment_count + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING comment_count
	`, postID)
	if err == sql.ErrNoRows {
		return nil, 0, model.ErrPostNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("increment comment count: %w", err)
	}

	var comment model.Comment
	query := `
		INSERT INTO post_comments (post_id, author_id, text, parent_comment_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + commentColumns
	err = tx.GetContext(ctx, &comment, query, postID, authorID, text, parentID)
	if err != nil {
		return nil, 0, fmt.Errorf("insert comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit transaction: %w", err)
	}

	comments := []model.Comment{comment}
	if err := r.attachAuthors(ctx, comments); err != nil {
		return nil, 0, err
	}

	return &comments[0], commentCount, nil
}

// Update edits a comment's text. Only the owner may edit.
func (r *commentRepository) Update(ctx context.Context, commentID, userID int64, text string) (*model.Comment, error) {
	query := `
		UPDATE post_comments
		SET text = $3, updated_at = NOW()
		WHERE id = $1 AND author_id = $2
		RETURNING ` + commentColumns

	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID, userID, text)
	if err == sql.ErrNoRows {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM post_comments WHERE id = $1)`, commentID)
		if exists {
			return nil, model.ErrNotCommentOwner
		}
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	comments := []model.Comment{comment}
	if err := r.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return &comments[0], nil
}

// Delete removes the comment and its replies, then decrements the post's
// comment_count by the number of rows removed, floored at zero.
func (r *commentRepository) Delete(ctx context.Context, commentID, userID int64) (int64, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var target struct {
		PostID   int64 `db:"post_id"`
		AuthorID int64 `db:"author_id"`
	}
	err = tx.GetContext(ctx, &target, `
		SELECT post_id, author_id FROM post_comments WHERE id = $1 FOR UPDATE
	`, commentID)
	if err == sql.ErrNoRows {
		return 0, 0, model.ErrCommentNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get comment: %w", err)
	}
	if target.AuthorID != userID {
		return 0, 0, model.ErrNotCommentOwner
	}

	// Replies are flattened to one level, so deleting the comment and its
	// direct children covers the whole subtree.
	var deleted int
	err = tx.GetContext(ctx, &deleted, `
		WITH removed AS (
			DELETE FROM post_comments
			WHERE id = $1 OR parent_comment_id = $1
			RETURNING id
		)
		SELECT COUNT(*) FROM removed
	`, commentID)
	if err != nil {
		return 0, 0, fmt.Errorf("delete comment: %w", err)
	}

	var commentCount int
	err = tx.GetContext(ctx, &commentCount, `
		UPDATE posts SET comment_count = GREATEST(comment_count - $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING comment_count
	`, target.PostID, deleted)
	if err != nil {
		return 0, 0, fmt.Errorf("decrement comment count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit transaction: %w", err)
	}

	return target.PostID, commentCount, nil
}

// GetByID retrieves a single comment.
func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM post_comments WHERE id = $1`

	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	comments := []model.Comment{comment}
	if err := r.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return &comments[0], nil
}

// ListTopLevel returns a post's top-level comments, oldest first.
func (r *commentRepository) ListTopLevel(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM post_comments
		WHERE post_id = $1 AND parent_comment_id IS NULL
		ORDER BY created_at ASC, id ASC
		OFFSET $2 LIMIT $3
	`
	var comments []model.Comment
	err := r.db.SelectContext(ctx, &comments, query, postID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list top-level comments: %w", err)
	}

	if err := r.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListReplies returns a comment's replies, oldest first.
func (r *commentRepository) ListReplies(ctx context.Context, parentID int64, offset, limit int) ([]model.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM post_comments
		WHERE parent_comment_id = $1
		ORDER BY created_at ASC, id ASC
		OFFSET $2 LIMIT $3
	`
	var comments []model.Comment
	err := r.db.SelectContext(ctx, &comments, query, parentID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	if err := r.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListByAuthor returns a user's comments, newest first.
func (r *commentRepository) ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]model.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM post_comments
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`
	var comments []model.Comment
	err := r.db.SelectContext(ctx, &comments, query, authorID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments by author: %w", err)
	}

	if err := r.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CheckLikes checks which comments the user has liked.
func (r *commentRepository) CheckLikes(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error) {
	if len(commentIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT comment_id FROM comment_likes WHERE user_id = $1 AND comment_id = ANY($2)`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(commentIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check comment likes: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range commentIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}

// attachAuthors attaches author summaries to a slice of comments in place.
func (r *commentRepository) attachAuthors(ctx context.Context, comments []model.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	authorIDs := make([]int64, len(comments))
	for i, c := range comments {
		authorIDs[i] = c.AuthorID
	}

	query := `SELECT id, username, display_name, avatar_url FROM users WHERE id = ANY($1)`
	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, pq.Array(authorIDs))
	if err != nil {
		return fmt.Errorf("get comment authors: %w", err)
	}

	userMap := make(map[int64]model.UserSummary, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	for i := range comments {
		if u, ok := userMap[comments[i].AuthorID]; ok {
			author := u
			comments[i].Author = &author
		}
	}
	return nil
}
