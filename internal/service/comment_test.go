package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"spendshare/internal/broadcast"
	"spendshare/internal/model"
)

type mockCommentRepository struct {
	createFn       func(ctx context.Context, postID, authorID int64, text string, parentID *int64) (*model.Comment, int, error)
	updateFn       func(ctx context.Context, commentID, userID int64, text string) (*model.Comment, error)
	deleteFn       func(ctx context.Context, commentID, userID int64) (int64, int, error)
	getByIDFn      func(ctx context.Context, commentID int64) (*model.Comment, error)
	listTopLevelFn func(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error)
	listRepliesFn  func(ctx context.Context, parentID int64, offset, limit int) ([]model.Comment, error)
	listByAuthorFn func(ctx context.Context, authorID int64, offset, limit int) ([]model.Comment, error)
	checkLikesFn   func(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error)

	createCalls int
}

func (m *mockCommentRepository) Create(ctx context.Context, postID, authorID int64, text string, parentID *int64) (*model.Comment, int, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, postID, authorID, text, parentID)
	}
	return &model.Comment{ID: 1, PostID: postID, AuthorID: authorID, Text: text, ParentCommentID: parentID}, 1, nil
}

func (m *mockCommentRepository) Update(ctx context.Context, commentID, userID int64, text string) (*model.Comment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, commentID, userID, text)
	}
	return &model.Comment{ID: commentID, AuthorID: userID, Text: text}, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, commentID, userID int64) (int64, int, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, commentID, userID)
	}
	return 0, 0, model.ErrCommentNotFound
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) ListTopLevel(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error) {
	if m.listTopLevelFn != nil {
		return m.listTopLevelFn(ctx, postID, offset, limit)
	}
	return nil, nil
}

func (m *mockCommentRepository) ListReplies(ctx context.Context, parentID int64, offset, limit int) ([]model.Comment, error) {
	if m.listRepliesFn != nil {
		return m.listRepliesFn(ctx, parentID, offset, limit)
	}
	return nil, nil
}

func (m *mockCommentRepository) ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]model.Comment, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, authorID, offset, limit)
	}
	return nil, nil
}

func (m *mockCommentRepository) CheckLikes(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, commentIDs)
	}
	return map[int64]bool{}, nil
}

type mockPostRepository struct {
	createFn          func(ctx context.Context, authorID int64, req *model.CreatePostRequest) (*model.Post, error)
	getByIDFn         func(ctx context.Context, postID int64) (*model.Post, error)
	getByIDsFn        func(ctx context.Context, postIDs []int64) ([]model.Post, error)
	topByEngagementFn func(ctx context.Context, limit int) ([]model.Post, error)
	updateFn          func(ctx context.Context, postID, userID int64, req *model.UpdatePostRequest) (*model.Post, error)
	deleteFn          func(ctx context.Context, postID, userID int64) error
	listFn            func(ctx context.Context, offset, limit int) ([]model.Post, error)
	searchFn          func(ctx context.Context, keywords []string, offset, limit int) ([]model.Post, error)
	repostFn          func(ctx context.Context, postID int64) (int, error)
	shareFn           func(ctx context.Context, postID int64) (int, error)
	checkLikesFn      func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	existsFn          func(ctx context.Context, postID int64) (bool, error)
	statsFn           func(ctx context.Context) (*model.Stats, error)

	searchCalls          int
	topByEngagementCalls int
}

func (m *mockPostRepository) Create(ctx context.Context, authorID int64, req *model.CreatePostRequest) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, req)
	}
	return &model.Post{ID: 1, AuthorID: authorID, Text: req.Text}, nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, postIDs)
	}
	return nil, nil
}

func (m *mockPostRepository) Update(ctx context.Context, postID, userID int64, req *model.UpdatePostRequest) (*model.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, postID, userID, req)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) Delete(ctx context.Context, postID, userID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, userID)
	}
	return model.ErrPostNotFound
}

func (m *mockPostRepository) List(ctx context.Context, offset, limit int) ([]model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]model.Post, error) {
	return nil, nil
}

func (m *mockPostRepository) Search(ctx context.Context, keywords []string, offset, limit int) ([]model.Post, error) {
	m.searchCalls++
	if m.searchFn != nil {
		return m.searchFn(ctx, keywords, offset, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) TopByEngagement(ctx context.Context, limit int) ([]model.Post, error) {
	m.topByEngagementCalls++
	if m.topByEngagementFn != nil {
		return m.topByEngagementFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) Repost(ctx context.Context, postID int64) (int, error) {
	if m.repostFn != nil {
		return m.repostFn(ctx, postID)
	}
	return 0, model.ErrPostNotFound
}

func (m *mockPostRepository) Share(ctx context.Context, postID int64) (int, error) {
	if m.shareFn != nil {
		return m.shareFn(ctx, postID)
	}
	return 0, model.ErrPostNotFound
}

func (m *mockPostRepository) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	return 0, model.ErrPostNotFound
}

func (m *mockPostRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, postIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockPostRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, postID)
	}
	return false, nil
}

func (m *mockPostRepository) Stats(ctx context.Context) (*model.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &model.Stats{}, nil
}

func postExists(ids ...int64) func(ctx context.Context, postID int64) (bool, error) {
	return func(ctx context.Context, postID int64) (bool, error) {
		for _, id := range ids {
			if id == postID {
				return true, nil
			}
		}
		return false, nil
	}
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestCommentService_Create_TopLevel(t *testing.T) {
	commentRepo := &mockCommentRepository{}
	postRepo := &mockPostRepository{existsFn: postExists(10)}
	pub := &mockPublisher{}
	svc := NewCommentService(commentRepo, postRepo, &mockUserRepository{}, pub)

	comment, err := svc.Create(context.Background(), 10, 42, model.CreateCommentRequest{Text: "great buy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if comment.PostID != 10 || comment.Text != "great buy" {
		t.Errorf("comment = %+v", comment)
	}
	if comment.ParentCommentID != nil {
		t.Error("top-level comment must have nil parent")
	}

	events := pub.recorded()
	if len(events) != 1 || events[0].Type != broadcast.EventNewComment {
		t.Fatalf("events = %+v, want one NEW_COMMENT", events)
	}
	if events[0].CommentCount == nil || *events[0].CommentCount != 1 {
		t.Errorf("event comments_count = %v, want 1", events[0].CommentCount)
	}
}

func TestCommentService_Create_PostNotFound(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{}, &mockUserRepository{}, nil)

	_, err := svc.Create(context.Background(), 99, 42, model.CreateCommentRequest{Text: "hello"})
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want ErrPostNotFound", err)
	}
}

func TestCommentService_Create_TextValidation(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{existsFn: postExists(10)}, &mockUserRepository{}, nil)

	if _, err := svc.Create(context.Background(), 10, 42, model.CreateCommentRequest{Text: ""}); !errors.Is(err, model.ErrCommentRequired) {
		t.Errorf("empty text: error = %v, want ErrCommentRequired", err)
	}

	long := strings.Repeat("a", model.MaxCommentLength+1)
	if _, err := svc.Create(context.Background(), 10, 42, model.CreateCommentRequest{Text: long}); !errors.Is(err, model.ErrCommentTooLong) {
		t.Errorf("long text: error = %v, want ErrCommentTooLong", err)
	}
}

func TestCommentService_Create_ParentNotFound(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{existsFn: postExists(10)}, &mockUserRepository{}, nil)

	parentID := int64(77)
	_, err := svc.Create(context.Background(), 10, 42, model.CreateCommentRequest{
		Text:            "reply",
		ParentCommentID: &parentID,
	})
	if !errors.Is(err, model.ErrParentNotFound) {
		t.Errorf("error = %v, want ErrParentNotFound", err)
	}
}

func TestCommentService_Create_ParentWrongPost(t *testing.T) {
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			// Parent lives on a different post
			return &model.Comment{ID: commentID, PostID: 999, AuthorID: 7}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{existsFn: postExists(10)}, &mockUserRepository{}, nil)

	parentID := int64(5)
	_, err := svc.Create(context.Background(), 10, 42, model.CreateCommentRequest{
		Text:            "reply",
		ParentCommentID: &parentID,
	})
	if !errors.Is(err, model.ErrParentWrongPost) {
		t.Errorf("error = %v, want ErrParentWrongPost", err)
	}
	if commentRepo.createCalls != 0 {
		t.Errorf("Create called %d times, want 0", commentRepo.createCalls)
	}
}

// Replying to a reply attaches to the top-level comment and mentions the
// intermediate author, so threads stay one level deep.
func TestCommentService_Create_FlattensReplyToReply(t *testing.T) {
	topLevelID := int64(5)
	replyID := int64(6)

	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			if commentID == replyID {
				return &model.Comment{ID: replyID, PostID: 10, AuthorID: 7, ParentCommentID: &topLevelID}, nil
			}
			return nil, model.ErrCommentNotFound
		},
	}
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Username: "alice"}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{existsFn: postExists(10)}, userRepo, nil)

	comment, err := svc.Create(context.Background(), 10, 42, model.CreateCommentRequest{
		Text:            "me too",
		ParentCommentID: &replyID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if comment.ParentCommentID == nil || *comment.ParentCommentID != topLevelID {
		t.Errorf("parent = %v, want top-level comment %d", comment.ParentCommentID, topLevelID)
	}
	if comment.Text != "@alice me too" {
		t.Errorf("text = %q, want mention prepended", comment.Text)
	}
}

// Replying directly to a top-level comment keeps the given parent untouched.
func TestCommentService_Create_DirectReply(t *testing.T) {
	topLevelID := int64(5)
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, PostID: 10, AuthorID: 7}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{existsFn: postExists(10)}, &mockUserRepository{}, nil)

	comment, err := svc.Create(context.Background(), 10, 42, model.CreateCommentRequest{
		Text:            "nice",
		ParentCommentID: &topLevelID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if comment.ParentCommentID == nil || *comment.ParentCommentID != topLevelID {
		t.Errorf("parent = %v, want %d", comment.ParentCommentID, topLevelID)
	}
	if comment.Text != "nice" {
		t.Errorf("text = %q, direct replies get no mention", comment.Text)
	}
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestCommentService_Delete_PublishesRemainingCount(t *testing.T) {
	commentRepo := &mockCommentRepository{
		deleteFn: func(ctx context.Context, commentID, userID int64) (int64, int, error) {
			// Comment plus two replies removed; three rows remain on the post
			return 10, 3, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, &mockUserRepository{}, pub)

	if err := svc.Delete(context.Background(), 5, 42); err != nil {
		t.Fatalf("delete: %v", err)
	}

	events := pub.recorded()
	if len(events) != 1 || events[0].Type != broadcast.EventCommentDeleted {
		t.Fatalf("events = %+v, want one COMMENT_DELETED", events)
	}
	if events[0].PostID != 10 || events[0].CommentID != 5 {
		t.Errorf("event ids = post %d comment %d", events[0].PostID, events[0].CommentID)
	}
	if events[0].CommentCount == nil || *events[0].CommentCount != 3 {
		t.Errorf("event comments_count = %v, want 3", events[0].CommentCount)
	}
}

func TestCommentService_Delete_NotOwner(t *testing.T) {
	commentRepo := &mockCommentRepository{
		deleteFn: func(ctx context.Context, commentID, userID int64) (int64, int, error) {
			return 0, 0, model.ErrNotCommentOwner
		},
	}
	pub := &mockPublisher{}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, &mockUserRepository{}, pub)

	err := svc.Delete(context.Background(), 5, 42)
	if !errors.Is(err, model.ErrNotCommentOwner) {
		t.Errorf("error = %v, want ErrNotCommentOwner", err)
	}
	if len(pub.recorded()) != 0 {
		t.Error("no event should be published on a failed delete")
	}
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestCommentService_ListTopLevel_Pagination(t *testing.T) {
	var gotOffset, gotLimit int
	commentRepo := &mockCommentRepository{
		listTopLevelFn: func(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error) {
			gotOffset, gotLimit = offset, limit
			// Look-ahead row present, so another page exists
			comments := make([]model.Comment, limit)
			for i := range comments {
				comments[i] = model.Comment{ID: int64(i + 1), PostID: postID}
			}
			return comments, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{existsFn: postExists(10)}, &mockUserRepository{}, nil)

	page, err := svc.ListTopLevel(context.Background(), 10, nil, 2, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotOffset != 10 || gotLimit != 6 {
		t.Errorf("repo called with offset=%d limit=%d, want 10 and 6", gotOffset, gotLimit)
	}
	if len(page.Comments) != 5 {
		t.Errorf("page holds %d comments, want 5", len(page.Comments))
	}
	if !page.HasNext {
		t.Error("expected has_next=true when the look-ahead row comes back")
	}
}

func TestCommentService_ListTopLevel_DefaultsAndEmpty(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{existsFn: postExists(10)}, &mockUserRepository{}, nil)

	page, err := svc.ListTopLevel(context.Background(), 10, nil, -1, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != 0 || page.Size != DefaultPageSize {
		t.Errorf("page=%d size=%d, want 0 and %d", page.Page, page.Size, DefaultPageSize)
	}
	if page.Comments == nil {
		t.Error("empty page must serialize as [], not null")
	}
	if page.HasNext {
		t.Error("expected has_next=false for an empty page")
	}
}

func TestCommentService_ListTopLevel_PostNotFound(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{}, &mockUserRepository{}, nil)

	_, err := svc.ListTopLevel(context.Background(), 99, nil, 0, 20)
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want ErrPostNotFound", err)
	}
}

func TestCommentService_ListReplies_ParentNotFound(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{}, &mockUserRepository{}, nil)

	_, err := svc.ListReplies(context.Background(), 77, nil, 0, 20)
	if !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("error = %v, want ErrCommentNotFound", err)
	}
}

func TestCommentService_ListTopLevel_MarksViewerLikes(t *testing.T) {
	commentRepo := &mockCommentRepository{
		listTopLevelFn: func(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error) {
			return []model.Comment{{ID: 1, PostID: postID}, {ID: 2, PostID: postID}}, nil
		},
		checkLikesFn: func(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{2: true}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{existsFn: postExists(10)}, &mockUserRepository{}, nil)

	viewer := int64(42)
	page, err := svc.ListTopLevel(context.Background(), 10, &viewer, 0, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Comments[0].IsLiked {
		t.Error("comment 1 should not be marked liked")
	}
	if !page.Comments[1].IsLiked {
		t.Error("comment 2 should be marked liked")
	}
}
