package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"spendshare/internal/model"
)

const postColumns = `
	id, author_id, text, purchase_date, price, currency, platform_id, product_url,
	visibility, like_count, comment_count, repost_count, share_count,
	created_at, updated_at
`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post and its media in a transaction.
func (r *postRepository) Create(ctx context.Context, authorID int64, req *model.CreatePostRequest) (*model.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	visibility := model.DefaultVisibility
	if req.Visibility != nil {
		visibility = *req.Visibility
	}

	var post model.Post
	query := `
		INSERT INTO posts (author_id, text, purchase_date, price, currency, platform_id, product_url, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + postColumns
	err = tx.GetContext(ctx, &post, query,
		authorID, req.Text, req.PurchaseDate, req.Price, req.Currency,
		req.PlatformID, req.ProductURL, visibility)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	if len(req.MediaURLs) > 0 {
		mediaQuery := `
			INSERT INTO post_media (post_id, media_url, media_type, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id, post_id, media_url, media_type, position
		`
		post.Media = make([]model.PostMedia, len(req.MediaURLs))
		for i, url := range req.MediaURLs {
			var media model.PostMedia
			err = tx.GetContext(ctx, &media, mediaQuery, post.ID, url, "image", i)
			if err != nil {
				return nil, fmt.Errorf("insert media %d: %w", i, err)
			}
			post.Media[i] = media
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &post, nil
}

// GetByID retrieves a single post with media, author and platform.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND deleted_at IS NULL`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	posts := []model.Post{post}
	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}

	return &posts[0], nil
}

// GetByIDs retrieves multiple posts by their IDs, preserving input order.
// Used for hydrating the trending list from cache.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ANY($1) AND deleted_at IS NULL`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}

	// Re-order posts to match input order (trending rank order)
	postsMap := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		postsMap[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := postsMap[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// Update edits a post's mutable fields. Only the owner may edit.
func (r *postRepository) Update(ctx context.Context, postID, userID int64, req *model.UpdatePostRequest) (*model.Post, error) {
	query := `
		UPDATE posts
		SET text = COALESCE($3, text),
		    visibility = COALESCE($4, visibility),
		    product_url = COALESCE($5, product_url),
		    purchase_date = COALESCE($6, purchase_date),
		    price = COALESCE($7, price),
		    currency = COALESCE($8, currency),
		    updated_at = NOW()
		WHERE id = $1 AND author_id = $2 AND deleted_at IS NULL
		RETURNING ` + postColumns

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID, userID,
		req.Text, req.Visibility, req.ProductURL, req.PurchaseDate, req.Price, req.Currency)
	if err == sql.ErrNoRows {
		exists, checkErr := r.Exists(ctx, postID)
		if checkErr == nil && exists {
			return nil, model.ErrNotPostOwner
		}
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	posts := []model.Post{post}
	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}

	return &posts[0], nil
}

// Delete performs a soft delete on a post.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE posts SET deleted_at = NOW()
		WHERE id = $1 AND author_id = $2 AND deleted_at IS NULL
	`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Check if post exists but belongs to different user
		exists, checkErr := r.Exists(ctx, postID)
		if checkErr == nil && exists {
			return model.ErrNotPostOwner
		}
		return model.ErrPostNotFound
	}

	return nil
}

// List returns posts newest first.
func (r *postRepository) List(ctx context.Context, offset, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE deleted_at IS NULL AND visibility = 'public'
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByAuthor returns one author's posts newest first.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE author_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, authorID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}

	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Search matches keywords against post text, author username, author display
// name and platform name. One keyword matches any field; two keywords must
// both match, each against any field.
func (r *postRepository) Search(ctx context.Context, keywords []string, offset, limit int) ([]model.Post, error) {
	if len(keywords) == 0 {
		return []model.Post{}, nil
	}

	matchClause := `(p.text ILIKE $%d OR u.username ILIKE $%d OR u.display_name ILIKE $%d OR pl.name ILIKE $%d)`

	query := `
		SELECT p.id, p.author_id, p.text, p.purchase_date, p.price, p.currency,
		       p.platform_id, p.product_url, p.visibility,
		       p.like_count, p.comment_count, p.repost_count, p.share_count,
		       p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN platforms pl ON pl.id = p.platform_id
		WHERE p.deleted_at IS NULL AND p.visibility = 'public'
	`
	args := make([]interface{}, 0, len(keywords)+2)
	for _, kw := range keywords {
		args = append(args, "%"+kw+"%")
		n := len(args)
		query += " AND " + fmt.Sprintf(matchClause, n, n, n, n)
	}
	args = append(args, offset, limit)
	query += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}

	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// TopByEngagement returns the highest-engagement posts straight from the
// counters. The weights match the stream scoring (a comment counts double).
func (r *postRepository) TopByEngagement(ctx context.Context, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE deleted_at IS NULL AND visibility = 'public'
		  AND like_count + comment_count > 0
		ORDER BY like_count + comment_count * 2 DESC, created_at DESC, id DESC
		LIMIT $1
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top posts by engagement: %w", err)
	}

	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Repost bumps the repost counter and returns the new value.
func (r *postRepository) Repost(ctx context.Context, postID int64) (int, error) {
	return r.bumpCounter(ctx, postID, "repost_count")
}

// Share bumps the share counter and returns the new value.
func (r *postRepository) Share(ctx context.Context, postID int64) (int, error) {
	return r.bumpCounter(ctx, postID, "share_count")
}

func (r *postRepository) bumpCounter(ctx context.Context, postID int64, column string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE posts SET %s = %s + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s
	`, column, column, column)

	var count int
	err := r.db.GetContext(ctx, &count, query, postID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("bump %s: %w", column, err)
	}
	return count, nil
}

// GetAuthorID returns the author of a post (for event publishing).
func (r *postRepository) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	var authorID int64
	err := r.db.GetContext(ctx, &authorID, `SELECT author_id FROM posts WHERE id = $1`, postID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get author id: %w", err)
	}
	return authorID, nil
}

// CheckLikes checks which posts the user has liked.
// Returns a map of post_id -> liked (true/false).
func (r *postRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if len(postIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT post_id FROM post_likes WHERE user_id = $1 AND post_id = ANY($2)`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(postIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check likes: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range postIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}

// Exists checks if a post exists and is not deleted.
func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND deleted_at IS NULL)`, postID)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// Stats returns the aggregate activity snapshot.
func (r *postRepository) Stats(ctx context.Context) (*model.Stats, error) {
	query := `
		SELECT COUNT(*)                          AS total_posts,
		       COALESCE(SUM(price), 0)           AS total_money_spent,
		       COUNT(DISTINCT author_id)         AS active_users
		FROM posts
		WHERE deleted_at IS NULL
	`
	var stats struct {
		TotalPosts      int64   `db:"total_posts"`
		TotalMoneySpent float64 `db:"total_money_spent"`
		ActiveUsers     int64   `db:"active_users"`
	}
	err := r.db.GetContext(ctx, &stats, query)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &model.Stats{
		TotalPosts:      stats.TotalPosts,
		TotalMoneySpent: stats.TotalMoneySpent,
		ActiveUsers:     stats.ActiveUsers,
	}, nil
}

// hydrate attaches media, authors and platforms to a slice of posts in place.
func (r *postRepository) hydrate(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]int64, len(posts))
	authorIDs := make([]int64, 0, len(posts))
	platformIDs := make([]int64, 0, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		authorIDs = append(authorIDs, p.AuthorID)
		if p.PlatformID != nil {
			platformIDs = append(platformIDs, *p.PlatformID)
		}
	}

	mediaMap, err := r.getPostMedia(ctx, postIDs)
	if err != nil {
		return err
	}

	authorMap, err := r.getAuthors(ctx, authorIDs)
	if err != nil {
		return err
	}

	platformMap, err := r.getPlatforms(ctx, platformIDs)
	if err != nil {
		return err
	}

	for i := range posts {
		posts[i].Media = mediaMap[posts[i].ID]
		if author, ok := authorMap[posts[i].AuthorID]; ok {
			a := author
			posts[i].Author = &a
		}
		if posts[i].PlatformID != nil {
			if platform, ok := platformMap[*posts[i].PlatformID]; ok {
				p := platform
				posts[i].Platform = &p
			}
		}
	}

	return nil
}

// Helper: fetch media for multiple posts in one query
func (r *postRepository) getPostMedia(ctx context.Context, postIDs []int64) (map[int64][]model.PostMedia, error) {
	query := `
		SELECT id, post_id, media_url, media_type, position
		FROM post_media
		WHERE post_id = ANY($1)
		ORDER BY post_id, position
	`
	var media []model.PostMedia
	err := r.db.SelectContext(ctx, &media, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get post media: %w", err)
	}

	result := make(map[int64][]model.PostMedia)
	for _, m := range media {
		result[m.PostID] = append(result[m.PostID], m)
	}
	return result, nil
}

// Helper: fetch author summaries in one query
func (r *postRepository) getAuthors(ctx context.Context, userIDs []int64) (map[int64]model.UserSummary, error) {
	query := `SELECT id, username, display_name, avatar_url FROM users WHERE id = ANY($1)`
	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("get authors: %w", err)
	}

	result := make(map[int64]model.UserSummary, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// Helper: fetch platforms in one query
func (r *postRepository) getPlatforms(ctx context.Context, platformIDs []int64) (map[int64]model.Platform, error) {
	if len(platformIDs) == 0 {
		return map[int64]model.Platform{}, nil
	}

	query := `SELECT id, name, domain, logo_url, verified FROM platforms WHERE id = ANY($1)`
	var platforms []model.Platform
	err := r.db.SelectContext(ctx, &platforms, query, pq.Array(platformIDs))
	if err != nil {
		return nil, fmt.Errorf("get platforms: %w", err)
	}

	result := make(map[int64]model.Platform, len(platforms))
	for _, p := range platforms {
		result[p.ID] = p
	}
	return result, nil
}
