package service

import (
	"context"
	"testing"

	"spendshare/internal/cache"
	"spendshare/internal/model"
)

type mockTrendingCache struct {
	topFn func(ctx context.Context, limit int) ([]cache.PostScore, error)
}

func (m *mockTrendingCache) Bump(ctx context.Context, postID int64, delta float64) error { return nil }
func (m *mockTrendingCache) Remove(ctx context.Context, postID int64) error              { return nil }
func (m *mockTrendingCache) Size(ctx context.Context) (int64, error)                     { return 0, nil }

func (m *mockTrendingCache) Top(ctx context.Context, limit int) ([]cache.PostScore, error) {
	if m.topFn != nil {
		return m.topFn(ctx, limit)
	}
	return nil, nil
}

func TestTrendingService_Top_HydratesAndRanks(t *testing.T) {
	trending := &mockTrendingCache{
		topFn: func(ctx context.Context, limit int) ([]cache.PostScore, error) {
			return []cache.PostScore{
				{PostID: 20, Score: 12.0},
				{PostID: 10, Score: 3.0},
			}, nil
		},
	}
	postRepo := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			posts := make([]model.Post, len(postIDs))
			for i, id := range postIDs {
				posts[i] = model.Post{ID: id, Text: "post"}
			}
			return posts, nil
		},
	}
	svc := NewTrendingService(trending, postRepo)

	items, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	// Highest score first, ranks assigned in order
	if items[0].PostID != 20 || items[0].Rank != 1 {
		t.Errorf("item 0 = %+v, want post 20 at rank 1", items[0])
	}
	if items[1].PostID != 10 || items[1].Rank != 2 {
		t.Errorf("item 1 = %+v, want post 10 at rank 2", items[1])
	}

	// Hot flag tracks the score threshold
	if !items[0].IsHot {
		t.Error("score 12.0 should be hot")
	}
	if items[1].IsHot {
		t.Error("score 3.0 should not be hot")
	}
}

// Posts deleted since their last score bump are hidden rather than surfacing
// as broken entries.
func TestTrendingService_Top_SkipsDeletedPosts(t *testing.T) {
	trending := &mockTrendingCache{
		topFn: func(ctx context.Context, limit int) ([]cache.PostScore, error) {
			return []cache.PostScore{
				{PostID: 20, Score: 12.0},
				{PostID: 10, Score: 3.0},
			}, nil
		},
	}
	postRepo := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			// Post 10 was soft deleted and does not hydrate
			return []model.Post{{ID: 20, Text: "post"}}, nil
		},
	}
	svc := NewTrendingService(trending, postRepo)

	items, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(items) != 1 || items[0].PostID != 20 {
		t.Errorf("items = %+v, want only post 20", items)
	}
}

func TestTrendingService_Top_Limits(t *testing.T) {
	var gotLimit int
	trending := &mockTrendingCache{
		topFn: func(ctx context.Context, limit int) ([]cache.PostScore, error) {
			gotLimit = limit
			return []cache.PostScore{{PostID: 1, Score: 1.0}}, nil
		},
	}
	postRepo := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			return []model.Post{{ID: 1}}, nil
		},
	}
	svc := NewTrendingService(trending, postRepo)

	if _, err := svc.Top(context.Background(), 0); err != nil {
		t.Fatalf("top: %v", err)
	}
	if gotLimit != DefaultTrendingLimit {
		t.Errorf("limit = %d, want default %d", gotLimit, DefaultTrendingLimit)
	}

	if _, err := svc.Top(context.Background(), cache.TrendingCap*10); err != nil {
		t.Fatalf("top: %v", err)
	}
	if gotLimit != cache.TrendingCap {
		t.Errorf("limit = %d, want capped at %d", gotLimit, cache.TrendingCap)
	}
}

// With no cached scores the ranking comes straight from the posts' counters,
// scored with the same weights the worker uses.
func TestTrendingService_Top_ColdCacheFallsBackToCounters(t *testing.T) {
	trending := &mockTrendingCache{} // empty cache
	postRepo := &mockPostRepository{
		topByEngagementFn: func(ctx context.Context, limit int) ([]model.Post, error) {
			return []model.Post{
				{ID: 20, Text: "post", LikeCount: 6, CommentCount: 3},
				{ID: 10, Text: "post", LikeCount: 2, CommentCount: 0},
			}, nil
		},
	}
	svc := NewTrendingService(trending, postRepo)

	items, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if postRepo.topByEngagementCalls != 1 {
		t.Fatalf("TopByEngagement called %d times, want 1", postRepo.topByEngagementCalls)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	// 6 likes + 3 comments = 12.0 with the worker's weights
	if items[0].PostID != 20 || items[0].Score != 12.0 || items[0].Rank != 1 {
		t.Errorf("item 0 = %+v, want post 20 score 12.0 rank 1", items[0])
	}
	if !items[0].IsHot {
		t.Error("score 12.0 should be hot")
	}
	if items[1].PostID != 10 || items[1].Score != 2.0 || items[1].Rank != 2 {
		t.Errorf("item 1 = %+v, want post 10 score 2.0 rank 2", items[1])
	}
}

func TestTrendingService_Top_ColdCacheEmptyStore(t *testing.T) {
	svc := NewTrendingService(&mockTrendingCache{}, &mockPostRepository{})

	items, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if items == nil {
		t.Error("empty result must serialize as [], not null")
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}
