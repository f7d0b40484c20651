package handler

import (
	"errors"
	"log"
	"net/http"

	"spendshare/internal/httputil"
	"spendshare/internal/model"
	"spendshare/internal/service"
	"spendshare/internal/transport/http/middleware"
)

// EngagementHandler exposes the like toggle endpoints.
type EngagementHandler struct {
	engagementService *service.EngagementService
}

func NewEngagementHandler(engagementService *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{
		engagementService: engagementService,
	}
}

// TogglePostLike handles POST /posts/{id}/like
// Flips the caller's like on the post and returns the new state.
func (h *EngagementHandler) TogglePostLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parseIDParam(w, r, "id", "Invalid post ID")
	if !ok {
		return
	}

	result, err := h.engagementService.TogglePostLike(r.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Toggle post like handler: user=%d post=%d err=%v", userID, postID, err)
		httputil.WriteInternalError(w, "Failed to toggle like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// ToggleCommentLike handles POST /comments/{id}/like
func (h *EngagementHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := parseIDParam(w, r, "id", "Invalid comment ID")
	if !ok {
		return
	}

	result, err := h.engagementService.ToggleCommentLike(r.Context(), commentID, userID)
	if err != nil {
		if errors.Is(err, model.ErrCommentNotFound) {
			httputil.WriteNotFound(w, "Comment not found")
			return
		}
		log.Printf("[ERROR] Toggle comment like handler: user=%d comment=%d err=%v", userID, commentID, err)
		httputil.WriteInternalError(w, "Failed to toggle like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
