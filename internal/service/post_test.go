package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"spendshare/internal/broadcast"
	"spendshare/internal/model"
)

type mockPlatformRepository struct {
	listFn    func(ctx context.Context) ([]model.Platform, error)
	getByIDFn func(ctx context.Context, id int64) (*model.Platform, error)
}

func (m *mockPlatformRepository) List(ctx context.Context) ([]model.Platform, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockPlatformRepository) GetByID(ctx context.Context, id int64) (*model.Platform, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrPlatformNotFound
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestPostService_Create_Success(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewPostService(&mockPostRepository{}, &mockPlatformRepository{}, pub)

	post, err := svc.Create(context.Background(), 42, model.CreatePostRequest{Text: "  bought a standing desk  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.Text != "bought a standing desk" {
		t.Errorf("text = %q, want trimmed text", post.Text)
	}

	events := pub.recorded()
	if len(events) != 1 || events[0].Type != broadcast.EventNewPost {
		t.Fatalf("events = %+v, want one NEW_POST", events)
	}
	if events[0].ActorID != 42 {
		t.Errorf("event actor_id = %d, want 42", events[0].ActorID)
	}
}

func TestPostService_Create_Validation(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, &mockPlatformRepository{}, nil)

	if _, err := svc.Create(context.Background(), 42, model.CreatePostRequest{Text: "   "}); !errors.Is(err, model.ErrTextRequired) {
		t.Errorf("blank text: error = %v, want ErrTextRequired", err)
	}

	long := strings.Repeat("a", model.MaxPostTextLength+1)
	if _, err := svc.Create(context.Background(), 42, model.CreatePostRequest{Text: long}); !errors.Is(err, model.ErrTextTooLong) {
		t.Errorf("long text: error = %v, want ErrTextTooLong", err)
	}

	media := make([]string, model.MaxPostMediaCount+1)
	for i := range media {
		media[i] = "https://cdn.example.com/m.jpg"
	}
	if _, err := svc.Create(context.Background(), 42, model.CreatePostRequest{Text: "ok", MediaURLs: media}); !errors.Is(err, model.ErrTooManyMedia) {
		t.Errorf("too many media: error = %v, want ErrTooManyMedia", err)
	}
}

func TestPostService_Create_UnknownPlatform(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, &mockPlatformRepository{}, nil)

	platformID := int64(99)
	_, err := svc.Create(context.Background(), 42, model.CreatePostRequest{
		Text:       "new phone",
		PlatformID: &platformID,
	})
	if !errors.Is(err, model.ErrPlatformNotFound) {
		t.Errorf("error = %v, want ErrPlatformNotFound", err)
	}
}

// =============================================================================
// UPDATE TESTS
// =============================================================================

// Purchase metadata is editable alongside text and visibility.
func TestPostService_Update_PurchaseFields(t *testing.T) {
	var gotReq *model.UpdatePostRequest
	repo := &mockPostRepository{
		updateFn: func(ctx context.Context, postID, userID int64, req *model.UpdatePostRequest) (*model.Post, error) {
			gotReq = req
			return &model.Post{ID: postID, AuthorID: userID}, nil
		},
	}
	svc := NewPostService(repo, &mockPlatformRepository{}, nil)

	purchaseDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	price := 129.99
	currency := "EUR"
	_, err := svc.Update(context.Background(), 10, 42, model.UpdatePostRequest{
		PurchaseDate: &purchaseDate,
		Price:        &price,
		Currency:     &currency,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if gotReq.PurchaseDate == nil || !gotReq.PurchaseDate.Equal(purchaseDate) {
		t.Errorf("purchase_date = %v, want %v", gotReq.PurchaseDate, purchaseDate)
	}
	if gotReq.Price == nil || *gotReq.Price != price {
		t.Errorf("price = %v, want %v", gotReq.Price, price)
	}
	if gotReq.Currency == nil || *gotReq.Currency != currency {
		t.Errorf("currency = %v, want %q", gotReq.Currency, currency)
	}
	// Text was not sent, so it must stay nil and untouched
	if gotReq.Text != nil {
		t.Errorf("text = %v, want nil", gotReq.Text)
	}
}

func TestPostService_Update_TextValidation(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, &mockPlatformRepository{}, nil)

	blank := "   "
	if _, err := svc.Update(context.Background(), 10, 42, model.UpdatePostRequest{Text: &blank}); !errors.Is(err, model.ErrTextRequired) {
		t.Errorf("blank text: error = %v, want ErrTextRequired", err)
	}
}

// =============================================================================
// SEARCH TESTS
// =============================================================================

func TestPostService_Search_KeywordTooShort(t *testing.T) {
	repo := &mockPostRepository{}
	svc := NewPostService(repo, &mockPlatformRepository{}, nil)

	for _, query := range []string{"", "   ", "a", "desk a"} {
		_, err := svc.Search(context.Background(), query, nil, 0, 20)
		if !errors.Is(err, model.ErrKeywordTooShort) {
			t.Errorf("query %q: error = %v, want ErrKeywordTooShort", query, err)
		}
	}
	if repo.searchCalls != 0 {
		t.Errorf("Search called %d times, want 0 on rejected queries", repo.searchCalls)
	}
}

func TestPostService_Search_NormalizesKeywords(t *testing.T) {
	var gotKeywords []string
	repo := &mockPostRepository{
		searchFn: func(ctx context.Context, keywords []string, offset, limit int) ([]model.Post, error) {
			gotKeywords = keywords
			return nil, nil
		},
	}
	svc := NewPostService(repo, &mockPlatformRepository{}, nil)

	// Lowercased, split on whitespace, truncated to two keywords
	if _, err := svc.Search(context.Background(), "  Standing DESK review  ", nil, 0, 20); err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"standing", "desk"}
	if !reflect.DeepEqual(gotKeywords, want) {
		t.Errorf("keywords = %v, want %v", gotKeywords, want)
	}
}

func TestPostService_Search_Pagination(t *testing.T) {
	repo := &mockPostRepository{
		searchFn: func(ctx context.Context, keywords []string, offset, limit int) ([]model.Post, error) {
			posts := make([]model.Post, limit)
			for i := range posts {
				posts[i] = model.Post{ID: int64(i + 1)}
			}
			return posts, nil
		},
	}
	svc := NewPostService(repo, &mockPlatformRepository{}, nil)

	page, err := svc.Search(context.Background(), "desk", nil, 0, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Posts) != 10 {
		t.Errorf("page holds %d posts, want 10", len(page.Posts))
	}
	if !page.HasNext {
		t.Error("expected has_next=true when the look-ahead row comes back")
	}
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestPostService_List_MarksViewerLikes(t *testing.T) {
	repo := &mockPostRepository{
		listFn: func(ctx context.Context, offset, limit int) ([]model.Post, error) {
			return []model.Post{{ID: 1}, {ID: 2}}, nil
		},
		checkLikesFn: func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{1: true}, nil
		},
	}
	svc := NewPostService(repo, &mockPlatformRepository{}, nil)

	viewer := int64(42)
	page, err := svc.List(context.Background(), &viewer, 0, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !page.Posts[0].IsLiked {
		t.Error("post 1 should be marked liked")
	}
	if page.Posts[1].IsLiked {
		t.Error("post 2 should not be marked liked")
	}
}

func TestPostService_List_SizeClamped(t *testing.T) {
	var gotLimit int
	repo := &mockPostRepository{
		listFn: func(ctx context.Context, offset, limit int) ([]model.Post, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := NewPostService(repo, &mockPlatformRepository{}, nil)

	page, err := svc.List(context.Background(), nil, 0, 500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Size != MaxPageSize {
		t.Errorf("size = %d, want clamped to %d", page.Size, MaxPageSize)
	}
	if gotLimit != MaxPageSize+1 {
		t.Errorf("repo limit = %d, want %d", gotLimit, MaxPageSize+1)
	}
}

// =============================================================================
// REPOST AND SHARE TESTS
// =============================================================================

func TestPostService_Repost(t *testing.T) {
	repo := &mockPostRepository{
		repostFn: func(ctx context.Context, postID int64) (int, error) { return 4, nil },
	}
	pub := &mockPublisher{}
	svc := NewPostService(repo, &mockPlatformRepository{}, pub)

	result, err := svc.Repost(context.Background(), 10, 42)
	if err != nil {
		t.Fatalf("repost: %v", err)
	}
	if !result.Reposted || result.RepostCount != 4 {
		t.Errorf("result = %+v, want reposted=true count=4", result)
	}

	events := pub.recorded()
	if len(events) != 1 || events[0].Type != broadcast.EventPostReposted {
		t.Fatalf("events = %+v, want one POST_REPOSTED", events)
	}
	if events[0].RepostCount == nil || *events[0].RepostCount != 4 {
		t.Errorf("event reposts_count = %v, want 4", events[0].RepostCount)
	}
}

func TestPostService_Share(t *testing.T) {
	repo := &mockPostRepository{
		shareFn: func(ctx context.Context, postID int64) (int, error) { return 2, nil },
	}
	pub := &mockPublisher{}
	svc := NewPostService(repo, &mockPlatformRepository{}, pub)

	result, err := svc.Share(context.Background(), 10, 42)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if !result.Shared || result.ShareCount != 2 {
		t.Errorf("result = %+v, want shared=true count=2", result)
	}

	events := pub.recorded()
	if len(events) != 1 || events[0].Type != broadcast.EventPostShared {
		t.Fatalf("events = %+v, want one POST_SHARED", events)
	}
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestPostService_Delete_PublishesEvent(t *testing.T) {
	repo := &mockPostRepository{
		deleteFn: func(ctx context.Context, postID, userID int64) error { return nil },
	}
	pub := &mockPublisher{}
	svc := NewPostService(repo, &mockPlatformRepository{}, pub)

	if err := svc.Delete(context.Background(), 10, 42); err != nil {
		t.Fatalf("delete: %v", err)
	}

	events := pub.recorded()
	if len(events) != 1 || events[0].Type != broadcast.EventPostDeleted {
		t.Fatalf("events = %+v, want one POST_DELETED", events)
	}
	if events[0].PostID != 10 {
		t.Errorf("event post_id = %d, want 10", events[0].PostID)
	}
}

func TestPostService_Delete_NotOwner(t *testing.T) {
	repo := &mockPostRepository{
		deleteFn: func(ctx context.Context, postID, userID int64) error { return model.ErrNotPostOwner },
	}
	pub := &mockPublisher{}
	svc := NewPostService(repo, &mockPlatformRepository{}, pub)

	err := svc.Delete(context.Background(), 10, 42)
	if !errors.Is(err, model.ErrNotPostOwner) {
		t.Errorf("error = %v, want ErrNotPostOwner", err)
	}
	if len(pub.recorded()) != 0 {
		t.Error("no event should be published on a failed delete")
	}
}
