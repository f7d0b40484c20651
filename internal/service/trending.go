package service

import (
	"context"
	"fmt"

	"spendshare/internal/cache"
	"spendshare/internal/model"
	"spendshare/internal/repository"
)

const (
	// DefaultTrendingLimit is how many posts Top returns by default.
	DefaultTrendingLimit = 10

	// hotScoreThreshold marks a post as hot once its engagement score
	// crosses it.
	hotScoreThreshold = 10.0
)

// TrendingService ranks posts by their cached engagement score.
type TrendingService struct {
	trending cache.TrendingCache
	postRepo repository.PostRepository
}

func NewTrendingService(trending cache.TrendingCache, postRepo repository.PostRepository) *TrendingService {
	return &TrendingService{
		trending: trending,
		postRepo: postRepo,
	}
}

// Top returns the highest-engagement posts. Posts that were deleted since
// their last score bump are silently skipped; the worker removes them from
// the cache when the deletion event arrives.
func (s *TrendingService) Top(ctx context.Context, limit int) ([]model.TrendingItem, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	if limit > cache.TrendingCap {
		limit = cache.TrendingCap
	}

	scores, err := s.trending.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		// Cold cache, e.g. after a restart or flush. Rank straight off the
		// denormalized counters until the worker rebuilds the scores.
		return s.topFromCounters(ctx, limit)
	}

	ids := make([]int64, len(scores))
	scoreByID := make(map[int64]float64, len(scores))
	for i, ps := range scores {
		ids[i] = ps.PostID
		scoreByID[ps.PostID] = ps.Score
	}

	posts, err := s.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate trending posts: %w", err)
	}

	items := make([]model.TrendingItem, 0, len(posts))
	for i, p := range posts {
		score := scoreByID[p.ID]
		item := model.TrendingItem{
			PostID: p.ID,
			Text:   p.Text,
			Score:  score,
			Rank:   i + 1,
			IsHot:  score >= hotScoreThreshold,
		}
		if p.Platform != nil {
			item.PlatformName = &p.Platform.Name
		}
		items = append(items, item)
	}

	return items, nil
}

// topFromCounters is the cold-cache fallback: the same ranking computed from
// the posts' own counters, with scores derived using the stream weights.
func (s *TrendingService) topFromCounters(ctx context.Context, limit int) ([]model.TrendingItem, error) {
	posts, err := s.postRepo.TopByEngagement(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("trending fallback: %w", err)
	}

	items := make([]model.TrendingItem, 0, len(posts))
	for i, p := range posts {
		score := float64(p.LikeCount)*cache.ScoreLike + float64(p.CommentCount)*cache.ScoreComment
		item := model.TrendingItem{
			PostID: p.ID,
			Text:   p.Text,
			Score:  score,
			Rank:   i + 1,
			IsHot:  score >= hotScoreThreshold,
		}
		if p.Platform != nil {
			item.PlatformName = &p.Platform.Name
		}
		items = append(items, item)
	}

	return items, nil
}

// Stats returns the aggregate activity snapshot.
func (s *TrendingService) Stats(ctx context.Context) (*model.Stats, error) {
	return s.postRepo.Stats(ctx)
}
