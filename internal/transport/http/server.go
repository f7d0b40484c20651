package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendshare/internal/broadcast"
	"spendshare/internal/cache"
	"spendshare/internal/config"
	"spendshare/internal/database"
	"spendshare/internal/handler"
	"spendshare/internal/realtime"
	redisclient "spendshare/internal/redis"
	"spendshare/internal/repository"
	"spendshare/internal/service"
	"spendshare/internal/worker"
)

// Run wires the whole application together and serves until interrupted.
func Run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	platformRepo := repository.NewPlatformRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	postLikes := repository.NewPostLikeStore(db)
	commentLikes := repository.NewCommentLikeStore(db)

	// Broadcast plumbing
	publisher := broadcast.NewPublisher(rdb.Client)
	consumer := broadcast.NewConsumer(rdb.Client)
	trendingCache := cache.NewTrendingCache(rdb.Client)

	// Services
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	postService := service.NewPostService(postRepo, platformRepo, publisher)
	commentService := service.NewCommentService(commentRepo, postRepo, userRepo, publisher)
	engagementService := service.NewEngagementService(postLikes, commentLikes, publisher)
	platformService := service.NewPlatformService(platformRepo)
	trendingService := service.NewTrendingService(trendingCache, postRepo)

	var mediaService *service.MediaService
	if cfg.S3Endpoint != "" {
		mediaService, err = service.NewMediaService(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to init media service: %w", err)
		}
	} else {
		log.Println("[Server] Object storage not configured, media endpoints disabled")
	}

	// Periodic refresh token cleanup
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			n, err := authService.CleanupExpiredTokens(ctx, 30*24*time.Hour)
			if err != nil {
				log.Printf("[Server] Token cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("[Server] Removed %d expired refresh tokens", n)
			}
		}
	}()

	// Realtime hub and broadcast workers
	hub := realtime.NewHub()
	workerHandler := worker.NewHandler(trendingCache, hub)
	manager := worker.NewManager(consumer, workerHandler, worker.ManagerConfig{
		WorkerCount: cfg.WorkerCount,
	})
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer manager.Stop()

	// Handlers
	router := NewRouter(RouterConfig{
		AuthHandler:       handler.NewAuthHandler(userService, authService, mediaService),
		UserHandler:       handler.NewUserHandler(userService),
		PostHandler:       handler.NewPostHandler(postService),
		CommentHandler:    handler.NewCommentHandler(commentService),
		EngagementHandler: handler.NewEngagementHandler(engagementService),
		PlatformHandler:   handler.NewPlatformHandler(platformService),
		TrendingHandler:   handler.NewTrendingHandler(trendingService),
		MediaHandler:      handler.NewMediaHandler(mediaService),
		RealtimeHandler:   hub.ServeWS,
		JWTSecret:         cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		errCh <- server.ListenAndServe()
	}()

	// Wait for interrupt or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("[Server] Received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
