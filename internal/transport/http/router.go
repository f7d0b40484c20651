package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spendshare/internal/handler"
	"spendshare/internal/httputil"
	authmw "spendshare/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	PostHandler       *handler.PostHandler
	CommentHandler    *handler.CommentHandler
	EngagementHandler *handler.EngagementHandler
	PlatformHandler   *handler.PlatformHandler
	TrendingHandler   *handler.TrendingHandler
	MediaHandler      *handler.MediaHandler
	RealtimeHandler   http.HandlerFunc
	JWTSecret         string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Shared realtime topic; every engagement mutation is pushed here
	r.Get("/ws", cfg.RealtimeHandler)

	// Catalog and aggregate endpoints, public
	r.Get("/platforms", cfg.PlatformHandler.List)
	r.Get("/platforms/{id}", cfg.PlatformHandler.GetByID)
	r.Get("/trending", cfg.TrendingHandler.Top)
	r.Get("/stats", cfg.TrendingHandler.Stats)

	// Public reads with optional authentication (for is_liked)
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalAuthMiddleware(cfg.JWTSecret))

		r.Get("/posts", cfg.PostHandler.List)
		r.Get("/posts/search", cfg.PostHandler.Search)
		r.Get("/posts/{id}", cfg.PostHandler.GetByID)
		r.Get("/posts/{id}/comments", cfg.CommentHandler.ListForPost)
		r.Get("/comments/{id}/replies", cfg.CommentHandler.ListReplies)
		r.Get("/users/{id}", cfg.UserHandler.GetProfile)
		r.Get("/users/{id}/posts", cfg.PostHandler.GetUserPosts)
		r.Get("/users/{id}/comments", cfg.CommentHandler.ListForUser)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Patch("/me", cfg.UserHandler.UpdateProfile)

		// Auth actions that require authentication
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		// Post endpoints
		r.Post("/posts", cfg.PostHandler.Create)
		r.Patch("/posts/{id}", cfg.PostHandler.Update)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/{id}/like", cfg.EngagementHandler.TogglePostLike)
		r.Post("/posts/{id}/repost", cfg.PostHandler.Repost)
		r.Post("/posts/{id}/share", cfg.PostHandler.Share)

		// Comment endpoints
		r.Post("/posts/{id}/comments", cfg.CommentHandler.Create)
		r.Patch("/comments/{id}", cfg.CommentHandler.Update)
		r.Delete("/comments/{id}", cfg.CommentHandler.Delete)
		r.Post("/comments/{id}/like", cfg.EngagementHandler.ToggleCommentLike)

		// Media endpoints (direct-to-storage uploads)
		r.Post("/media/posts/presign", cfg.MediaHandler.PresignUpload)
		r.Post("/media/posts/presign/batch", cfg.MediaHandler.PresignUploadBatch)
	})

	return r
}
