package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"spendshare/internal/httputil"
	"spendshare/internal/model"
	"spendshare/internal/service"
	"spendshare/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// PresignUpload handles POST /media/posts/presign
// Returns a presigned URL for uploading post media directly to storage.
func (h *MediaHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	_, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB is plenty for JSON
	var req model.PresignUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		httputil.WriteBadRequest(w, "content_type is required")
		return
	}

	res, err := h.mediaService.PresignUpload(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Media exceeds 10MB limit")
		default:
			httputil.WriteInternalError(w, "Failed to create upload URL")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// PresignUploadBatch handles POST /media/posts/presign/batch
// Returns presigned URLs for uploading multiple post media items.
func (h *MediaHandler) PresignUploadBatch(w http.ResponseWriter, r *http.Request) {
	_, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req model.PresignUploadBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if len(req.Items) == 0 {
		httputil.WriteBadRequest(w, "items is required")
		return
	}
	if len(req.Items) > model.MaxPostMediaCount {
		httputil.WriteBadRequest(w, fmt.Sprintf("too many items (max %d)", model.MaxPostMediaCount))
		return
	}

	for i := range req.Items {
		req.Items[i].ContentType = strings.TrimSpace(req.Items[i].ContentType)
		if req.Items[i].ContentType == "" {
			httputil.WriteBadRequest(w, fmt.Sprintf("items[%d].content_type is required", i))
			return
		}
	}

	res, err := h.mediaService.PresignUploadBatch(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Media exceeds 10MB limit")
		case errors.Is(err, model.ErrTooManyMedia):
			httputil.WriteBadRequest(w, fmt.Sprintf("too many items (max %d)", model.MaxPostMediaCount))
		default:
			httputil.WriteInternalError(w, "Failed to create upload URLs")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
