package handler

import (
	"log"
	"net/http"
	"strconv"

	"spendshare/internal/httputil"
	"spendshare/internal/service"
)

// TrendingHandler serves the trending list and the stats snapshot.
type TrendingHandler struct {
	trendingService *service.TrendingService
}

func NewTrendingHandler(trendingService *service.TrendingService) *TrendingHandler {
	return &TrendingHandler{
		trendingService: trendingService,
	}
}

// Top handles GET /trending?limit=N
func (h *TrendingHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.trendingService.Top(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] Trending handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to get trending posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// Stats handles GET /stats
func (h *TrendingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.trendingService.Stats(r.Context())
	if err != nil {
		log.Printf("[ERROR] Stats handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to get stats")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}
