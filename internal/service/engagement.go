package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"spendshare/internal/broadcast"
	"spendshare/internal/model"
)

// LikeStore is the per-target persistence a like toggle needs. Post and
// comment stores implement it; each Like and Unlike is a single transaction
// owned by the store.
type LikeStore interface {
	Kind() broadcast.TargetKind
	// Target reports whether the target exists and its current like count.
	Target(ctx context.Context, targetID int64) (exists bool, likeCount int, err error)
	// Liked reports whether the user currently likes the target.
	Liked(ctx context.Context, userID, targetID int64) (bool, error)
	// Like records the like and returns the new count. Returns
	// model.ErrAlreadyLiked if the user already likes the target.
	Like(ctx context.Context, userID, targetID int64) (newCount int, err error)
	// Unlike removes the like and returns the new count. Returns
	// model.ErrNotLiked if there was nothing to remove.
	Unlike(ctx context.Context, userID, targetID int64) (newCount int, err error)
}

// EngagementService runs like toggles against posts and comments and
// broadcasts the outcome.
type EngagementService struct {
	posts     LikeStore
	comments  LikeStore
	publisher broadcast.Publisher
}

func NewEngagementService(posts, comments LikeStore, publisher broadcast.Publisher) *EngagementService {
	return &EngagementService{
		posts:     posts,
		comments:  comments,
		publisher: publisher,
	}
}

// TogglePostLike flips the user's like on a post.
func (s *EngagementService) TogglePostLike(ctx context.Context, postID, userID int64) (*model.ToggleResult, error) {
	return s.toggle(ctx, s.posts, postID, userID)
}

// ToggleCommentLike flips the user's like on a comment.
func (s *EngagementService) ToggleCommentLike(ctx context.Context, commentID, userID int64) (*model.ToggleResult, error) {
	return s.toggle(ctx, s.comments, commentID, userID)
}

// toggle reads the user's current like state and inverts it. Two concurrent
// toggles can both pass the Liked check; the store's unique constraint
// decides the winner and the loser adopts the winner's outcome, so the same
// request repeated is always idempotent.
func (s *EngagementService) toggle(ctx context.Context, store LikeStore, targetID, userID int64) (*model.ToggleResult, error) {
	exists, _, err := store.Target(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("check target: %w", err)
	}
	if !exists {
		return nil, notFoundFor(store.Kind())
	}

	liked, err := store.Liked(ctx, userID, targetID)
	if err != nil {
		return nil, fmt.Errorf("check liked: %w", err)
	}

	var result model.ToggleResult
	if liked {
		count, err := store.Unlike(ctx, userID, targetID)
		if errors.Is(err, model.ErrNotLiked) {
			// Lost a race with a concurrent unlike; adopt that outcome.
			count, err = s.currentCount(ctx, store, targetID)
			if err != nil {
				return nil, err
			}
			result = model.ToggleResult{Liked: false, LikeCount: count}
		} else if err != nil {
			return nil, err
		} else {
			result = model.ToggleResult{Liked: false, LikeCount: count}
		}
	} else {
		count, err := store.Like(ctx, userID, targetID)
		if errors.Is(err, model.ErrAlreadyLiked) {
			// Lost a race with a concurrent like; adopt that outcome.
			count, err = s.currentCount(ctx, store, targetID)
			if err != nil {
				return nil, err
			}
			result = model.ToggleResult{Liked: true, LikeCount: count}
		} else if err != nil {
			return nil, err
		} else {
			result = model.ToggleResult{Liked: true, LikeCount: count}
		}
	}

	log.Printf("[EngagementService] User %d toggled %s %d: liked=%v count=%d",
		userID, store.Kind(), targetID, result.Liked, result.LikeCount)

	// Publish after the store transaction committed, best-effort
	if s.publisher != nil {
		event := broadcast.NewLikeToggledEvent(store.Kind(), targetID, userID, result.Liked, result.LikeCount)
		if _, err := s.publisher.Publish(ctx, broadcast.StreamPosts, event); err != nil {
			log.Printf("[EngagementService] Failed to publish like event: %v", err)
		}
	}

	return &result, nil
}

func (s *EngagementService) currentCount(ctx context.Context, store LikeStore, targetID int64) (int, error) {
	exists, count, err := store.Target(ctx, targetID)
	if err != nil {
		return 0, fmt.Errorf("reread target: %w", err)
	}
	if !exists {
		return 0, notFoundFor(store.Kind())
	}
	return count, nil
}

func notFoundFor(kind broadcast.TargetKind) error {
	if kind == broadcast.TargetComment {
		return model.ErrCommentNotFound
	}
	return model.ErrPostNotFound
}
