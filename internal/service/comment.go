package service

import (
	"context"
	"fmt"
	"log"

	"spendshare/internal/broadcast"
	"spendshare/internal/model"
	"spendshare/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// normalizePage clamps page/size to sane bounds.
func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	publisher   broadcast.Publisher
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	publisher broadcast.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		publisher:   publisher,
	}
}

// Create adds a comment to a post and bumps the post's comment counter.
func (s *CommentService) Create(ctx context.Context, postID, userID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	if len(req.Text) == 0 {
		return nil, model.ErrCommentRequired
	}
	if len(req.Text) > model.MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	// If a parent is provided it must exist and belong to the same post.
	// Replying to a reply flattens to the top-level comment with an @mention,
	// so the thread never nests deeper than one level.
	actualParentID := req.ParentCommentID
	if req.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentCommentID)
		if err != nil {
			if err == model.ErrCommentNotFound {
				return nil, model.ErrParentNotFound
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, model.ErrParentWrongPost
		}

		if parent.ParentCommentID != nil {
			actualParentID = parent.ParentCommentID

			parentAuthor, err := s.userRepo.GetByID(ctx, parent.AuthorID)
			if err == nil {
				req.Text = "@" + parentAuthor.Username + " " + req.Text
			}
		}
	}

	comment, commentCount, err := s.commentRepo.Create(ctx, postID, userID, req.Text, actualParentID)
	if err != nil {
		return nil, err
	}

	log.Printf("[CommentService] User %d commented on post %d", userID, postID)

	// Publish after commit, best-effort
	if s.publisher != nil {
		event := broadcast.NewCommentCreatedEvent(comment, commentCount)
		if _, err := s.publisher.Publish(ctx, broadcast.StreamPosts, event); err != nil {
			log.Printf("[CommentService] Failed to publish NewComment event: %v", err)
		}
	}

	return comment, nil
}

// Update edits a comment's text. Only the owner may edit.
func (s *CommentService) Update(ctx context.Context, commentID, userID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	if len(req.Text) == 0 {
		return nil, model.ErrCommentRequired
	}
	if len(req.Text) > model.MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}

	comment, err := s.commentRepo.Update(ctx, commentID, userID, req.Text)
	if err != nil {
		return nil, err
	}

	log.Printf("[CommentService] User %d updated comment %d", userID, commentID)
	return comment, nil
}

// Delete removes a comment and its replies, keeping the post's comment
// counter consistent with the remaining rows.
func (s *CommentService) Delete(ctx context.Context, commentID, userID int64) error {
	postID, commentCount, err := s.commentRepo.Delete(ctx, commentID, userID)
	if err != nil {
		return err
	}

	log.Printf("[CommentService] User %d deleted comment %d from post %d", userID, commentID, postID)

	if s.publisher != nil {
		event := broadcast.NewCommentDeletedEvent(commentID, postID, userID, commentCount)
		if _, err := s.publisher.Publish(ctx, broadcast.StreamPosts, event); err != nil {
			log.Printf("[CommentService] Failed to publish CommentDeleted event: %v", err)
		}
	}

	return nil
}

// ListTopLevel returns a post's top-level comments, oldest first. viewerID
// may be nil for anonymous readers; is_liked is false for them.
func (s *CommentService) ListTopLevel(ctx context.Context, postID int64, viewerID *int64, page, size int) (*model.CommentPage, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	page, size = normalizePage(page, size)
	comments, err := s.commentRepo.ListTopLevel(ctx, postID, page*size, size+1)
	if err != nil {
		return nil, err
	}

	return s.buildPage(ctx, comments, viewerID, page, size)
}

// ListReplies returns a comment's replies, oldest first.
func (s *CommentService) ListReplies(ctx context.Context, parentID int64, viewerID *int64, page, size int) (*model.CommentPage, error) {
	if _, err := s.commentRepo.GetByID(ctx, parentID); err != nil {
		return nil, err
	}

	page, size = normalizePage(page, size)
	comments, err := s.commentRepo.ListReplies(ctx, parentID, page*size, size+1)
	if err != nil {
		return nil, err
	}

	return s.buildPage(ctx, comments, viewerID, page, size)
}

// ListByAuthor returns a user's comments, newest first.
func (s *CommentService) ListByAuthor(ctx context.Context, authorID int64, viewerID *int64, page, size int) (*model.CommentPage, error) {
	page, size = normalizePage(page, size)
	comments, err := s.commentRepo.ListByAuthor(ctx, authorID, page*size, size+1)
	if err != nil {
		return nil, err
	}

	return s.buildPage(ctx, comments, viewerID, page, size)
}

// buildPage trims the look-ahead row, resolves has_next and marks the viewer's likes.
func (s *CommentService) buildPage(ctx context.Context, comments []model.Comment, viewerID *int64, page, size int) (*model.CommentPage, error) {
	hasNext := len(comments) > size
	if hasNext {
		comments = comments[:size]
	}

	if viewerID != nil && len(comments) > 0 {
		ids := make([]int64, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		likedMap, err := s.commentRepo.CheckLikes(ctx, *viewerID, ids)
		if err != nil {
			return nil, fmt.Errorf("check comment likes: %w", err)
		}
		for i := range comments {
			comments[i].IsLiked = likedMap[comments[i].ID]
		}
	}

	if comments == nil {
		comments = []model.Comment{}
	}

	return &model.CommentPage{
		Comments: comments,
		Page:     page,
		Size:     size,
		HasNext:  hasNext,
	}, nil
}
