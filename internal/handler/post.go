package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"spendshare/internal/httputil"
	"spendshare/internal/model"
	"spendshare/internal/service"
	"spendshare/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Create handles POST /posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTextRequired):
			httputil.WriteBadRequest(w, "Post text is required")
		case errors.Is(err, model.ErrTextTooLong):
			httputil.WriteBadRequest(w, "Post text too long (max 5000 characters)")
		case errors.Is(err, model.ErrTooManyMedia):
			httputil.WriteBadRequest(w, "Too many media items (max 10)")
		case errors.Is(err, model.ErrPlatformNotFound):
			httputil.WriteBadRequest(w, "Unknown platform")
		default:
			log.Printf("[ERROR] Create post handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetByID handles GET /posts/{id}
// Returns a single post with full details.
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := parseIDParam(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	viewerID := optionalViewer(r)

	post, err := h.postService.GetByID(r.Context(), postID, viewerID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Get post handler: post=%d err=%v", postID, err)
		httputil.WriteInternalError(w, "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update handles PATCH /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parseIDParam(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	var req model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Update(r.Context(), postID, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only edit your own posts")
		case errors.Is(err, model.ErrTextRequired):
			httputil.WriteBadRequest(w, "Post text is required")
		case errors.Is(err, model.ErrTextTooLong):
			httputil.WriteBadRequest(w, "Post text too long (max 5000 characters)")
		default:
			log.Printf("[ERROR] Update post handler: user=%d post=%d err=%v", userID, postID, err)
			httputil.WriteInternalError(w, "Failed to update post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
// Soft-deletes a post (only owner can delete).
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parseIDParam(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	err := h.postService.Delete(r.Context(), postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only delete your own posts")
		default:
			log.Printf("[ERROR] Delete post handler: user=%d post=%d err=%v", userID, postID, err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// List handles GET /posts
// Returns the public feed, newest first.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)
	viewerID := optionalViewer(r)

	result, err := h.postService.List(r.Context(), viewerID, page, size)
	if err != nil {
		log.Printf("[ERROR] List posts handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to list posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetUserPosts handles GET /users/{id}/posts
func (h *PostHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	authorID, ok := parseIDParam(w, r, "id", "Invalid user ID")
	if !ok {
		return
	}

	page, size := parsePagination(r)
	viewerID := optionalViewer(r)

	result, err := h.postService.ListByAuthor(r.Context(), authorID, viewerID, page, size)
	if err != nil {
		log.Printf("[ERROR] Get user posts handler: user=%d err=%v", authorID, err)
		httputil.WriteInternalError(w, "Failed to list posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Search handles GET /posts/search?q=...
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, size := parsePagination(r)
	viewerID := optionalViewer(r)

	result, err := h.postService.Search(r.Context(), query, viewerID, page, size)
	if err != nil {
		if errors.Is(err, model.ErrKeywordTooShort) {
			// Error envelope plus an empty result set, so list-shaped clients
			// still find the fields they expect
			httputil.WriteJSON(w, http.StatusBadRequest, struct {
				httputil.ErrorResponse
				model.PostPage
			}{
				ErrorResponse: httputil.ErrorResponse{
					Error: httputil.ErrorDetail{
						Code:    httputil.ErrCodeBadRequest,
						Message: "Search keywords must be at least 2 characters",
					},
				},
				PostPage: model.PostPage{Posts: []model.Post{}, Page: page, Size: size},
			})
			return
		}
		log.Printf("[ERROR] Search posts handler: q=%q err=%v", query, err)
		httputil.WriteInternalError(w, "Failed to search posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Repost handles POST /posts/{id}/repost
func (h *PostHandler) Repost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parseIDParam(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	result, err := h.postService.Repost(r.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Repost handler: user=%d post=%d err=%v", userID, postID, err)
		httputil.WriteInternalError(w, "Failed to repost")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Share handles POST /posts/{id}/share
func (h *PostHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parseIDParam(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	result, err := h.postService.Share(r.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Share handler: user=%d post=%d err=%v", userID, postID, err)
		httputil.WriteInternalError(w, "Failed to share")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// parseIDParam parses a numeric URL parameter, writing a 400 on failure.
func parseIDParam(w http.ResponseWriter, r *http.Request, name, errMsg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, errMsg)
		return 0, false
	}
	return id, true
}

// parsePagination reads page and size query params, defaulting on absence.
func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return page, size
}

// optionalViewer returns the authenticated user's ID when present.
func optionalViewer(r *http.Request) *int64 {
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}
