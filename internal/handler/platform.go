package handler

import (
	"errors"
	"log"
	"net/http"

	"spendshare/internal/httputil"
	"spendshare/internal/model"
	"spendshare/internal/service"
)

// PlatformHandler serves the shopping platform catalog.
type PlatformHandler struct {
	platformService *service.PlatformService
}

func NewPlatformHandler(platformService *service.PlatformService) *PlatformHandler {
	return &PlatformHandler{
		platformService: platformService,
	}
}

// List handles GET /platforms
func (h *PlatformHandler) List(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.platformService.List(r.Context())
	if err != nil {
		log.Printf("[ERROR] List platforms handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to list platforms")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"platforms": platforms})
}

// GetByID handles GET /platforms/{id}
func (h *PlatformHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	platformID, ok := parseIDParam(w, r, "id", "Invalid platform ID")
	if !ok {
		return
	}

	platform, err := h.platformService.GetByID(r.Context(), platformID)
	if err != nil {
		if errors.Is(err, model.ErrPlatformNotFound) {
			httputil.WriteNotFound(w, "Platform not found")
			return
		}
		log.Printf("[ERROR] Get platform handler: platform=%d err=%v", platformID, err)
		httputil.WriteInternalError(w, "Failed to get platform")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, platform)
}
