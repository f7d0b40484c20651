package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"spendshare/internal/broadcast"
	"spendshare/internal/model"
	"spendshare/internal/repository"
)

type PostService struct {
	postRepo     repository.PostRepository
	platformRepo repository.PlatformRepository
	publisher    broadcast.Publisher
}

func NewPostService(
	postRepo repository.PostRepository,
	platformRepo repository.PlatformRepository,
	publisher broadcast.Publisher,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		platformRepo: platformRepo,
		publisher:    publisher,
	}
}

// Create validates and stores a new post, then announces it.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	req.Text = strings.TrimSpace(req.Text)
	if len(req.Text) == 0 {
		return nil, model.ErrTextRequired
	}
	if len(req.Text) > model.MaxPostTextLength {
		return nil, model.ErrTextTooLong
	}
	if len(req.MediaURLs) > model.MaxPostMediaCount {
		return nil, model.ErrTooManyMedia
	}

	if req.PlatformID != nil {
		if _, err := s.platformRepo.GetByID(ctx, *req.PlatformID); err != nil {
			return nil, err
		}
	}

	post, err := s.postRepo.Create(ctx, userID, &req)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %d created post %d", userID, post.ID)

	if s.publisher != nil {
		event := broadcast.NewPostCreatedEvent(post)
		if _, err := s.publisher.Publish(ctx, broadcast.StreamPosts, event); err != nil {
			log.Printf("[PostService] Failed to publish NewPost event: %v", err)
		}
	}

	return post, nil
}

// GetByID returns a single post. viewerID may be nil.
func (s *PostService) GetByID(ctx context.Context, postID int64, viewerID *int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if viewerID != nil {
		likedMap, err := s.postRepo.CheckLikes(ctx, *viewerID, []int64{postID})
		if err != nil {
			return nil, fmt.Errorf("check likes: %w", err)
		}
		post.IsLiked = likedMap[postID]
	}

	return post, nil
}

// Update edits a post's mutable fields. Only the owner may edit.
func (s *PostService) Update(ctx context.Context, postID, userID int64, req model.UpdatePostRequest) (*model.Post, error) {
	if req.Text != nil {
		trimmed := strings.TrimSpace(*req.Text)
		if len(trimmed) == 0 {
			return nil, model.ErrTextRequired
		}
		if len(trimmed) > model.MaxPostTextLength {
			return nil, model.ErrTextTooLong
		}
		req.Text = &trimmed
	}

	post, err := s.postRepo.Update(ctx, postID, userID, &req)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %d updated post %d", userID, postID)
	return post, nil
}

// Delete soft-deletes a post and announces the removal.
func (s *PostService) Delete(ctx context.Context, postID, userID int64) error {
	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}

	log.Printf("[PostService] User %d deleted post %d", userID, postID)

	if s.publisher != nil {
		event := broadcast.NewPostDeletedEvent(postID, userID)
		if _, err := s.publisher.Publish(ctx, broadcast.StreamPosts, event); err != nil {
			log.Printf("[PostService] Failed to publish PostDeleted event: %v", err)
		}
	}

	return nil
}

// List returns the public feed, newest first.
func (s *PostService) List(ctx context.Context, viewerID *int64, page, size int) (*model.PostPage, error) {
	page, size = normalizePage(page, size)
	posts, err := s.postRepo.List(ctx, page*size, size+1)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, posts, viewerID, page, size)
}

// ListByAuthor returns one user's posts, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID int64, viewerID *int64, page, size int) (*model.PostPage, error) {
	page, size = normalizePage(page, size)
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, page*size, size+1)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, posts, viewerID, page, size)
}

// Search matches a free-text query against posts. The query is lowercased
// and split on whitespace; the first two keywords are used and each must be
// at least two characters long.
func (s *PostService) Search(ctx context.Context, query string, viewerID *int64, page, size int) (*model.PostPage, error) {
	keywords := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(keywords) == 0 {
		return nil, model.ErrKeywordTooShort
	}
	if len(keywords) > 2 {
		keywords = keywords[:2]
	}
	for _, kw := range keywords {
		if len(kw) < model.MinSearchKeywordLen {
			return nil, model.ErrKeywordTooShort
		}
	}

	page, size = normalizePage(page, size)
	posts, err := s.postRepo.Search(ctx, keywords, page*size, size+1)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, posts, viewerID, page, size)
}

// Repost bumps the repost counter and announces it.
func (s *PostService) Repost(ctx context.Context, postID, userID int64) (*model.RepostResult, error) {
	count, err := s.postRepo.Repost(ctx, postID)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %d reposted post %d", userID, postID)

	if s.publisher != nil {
		event := broadcast.NewPostRepostedEvent(postID, userID, count)
		if _, err := s.publisher.Publish(ctx, broadcast.StreamPosts, event); err != nil {
			log.Printf("[PostService] Failed to publish PostReposted event: %v", err)
		}
	}

	return &model.RepostResult{Reposted: true, RepostCount: count}, nil
}

// Share bumps the share counter and announces it.
func (s *PostService) Share(ctx context.Context, postID, userID int64) (*model.ShareResult, error) {
	count, err := s.postRepo.Share(ctx, postID)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %d shared post %d", userID, postID)

	if s.publisher != nil {
		event := broadcast.NewPostSharedEvent(postID, userID, count)
		if _, err := s.publisher.Publish(ctx, broadcast.StreamPosts, event); err != nil {
			log.Printf("[PostService] Failed to publish PostShared event: %v", err)
		}
	}

	return &model.ShareResult{Shared: true, ShareCount: count}, nil
}

// buildPage trims the look-ahead row, resolves has_next and marks the viewer's likes.
func (s *PostService) buildPage(ctx context.Context, posts []model.Post, viewerID *int64, page, size int) (*model.PostPage, error) {
	hasNext := len(posts) > size
	if hasNext {
		posts = posts[:size]
	}

	if viewerID != nil && len(posts) > 0 {
		ids := make([]int64, len(posts))
		for i, p := range posts {
			ids[i] = p.ID
		}
		likedMap, err := s.postRepo.CheckLikes(ctx, *viewerID, ids)
		if err != nil {
			return nil, fmt.Errorf("check likes: %w", err)
		}
		for i := range posts {
			posts[i].IsLiked = likedMap[posts[i].ID]
		}
	}

	if posts == nil {
		posts = []model.Post{}
	}

	return &model.PostPage{
		Posts:   posts,
		Page:    page,
		Size:    size,
		HasNext: hasNext,
	}, nil
}
