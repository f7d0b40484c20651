package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"spendshare/internal/broadcast"
	"spendshare/internal/cache"
)

// Broadcaster forwards events to connected realtime clients.
// Implemented by the websocket hub.
type Broadcaster interface {
	Broadcast(event broadcast.Event)
}

// Handler processes engagement events from the stream: it keeps the trending
// scores current and forwards every event to the realtime broadcaster.
type Handler struct {
	trending    cache.TrendingCache
	broadcaster Broadcaster
}

// NewHandler creates a new event handler.
func NewHandler(trending cache.TrendingCache, broadcaster Broadcaster) *Handler {
	return &Handler{
		trending:    trending,
		broadcaster: broadcaster,
	}
}

// HandleEvent updates trending scores for engagement events, then forwards
// the event to all realtime subscribers. Forwarding happens for every known
// event type so clients see each mutation exactly once.
func (h *Handler) HandleEvent(ctx context.Context, event broadcast.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case broadcast.EventPostLiked:
		err = h.bumpTrending(ctx, event.PostID, cache.ScoreLike)
	case broadcast.EventPostUnliked:
		err = h.bumpTrending(ctx, event.PostID, -cache.ScoreLike)
	case broadcast.EventNewComment:
		err = h.bumpTrending(ctx, event.PostID, cache.ScoreComment)
	case broadcast.EventCommentDeleted:
		err = h.bumpTrending(ctx, event.PostID, -cache.ScoreComment)
	case broadcast.EventPostDeleted:
		err = h.removeTrending(ctx, event.PostID)
	case broadcast.EventNewPost,
		broadcast.EventPostReposted,
		broadcast.EventPostShared,
		broadcast.EventCommentLiked,
		broadcast.EventCommentUnliked:
		// No trending adjustment, forward only
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(event)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

func (h *Handler) bumpTrending(ctx context.Context, postID int64, delta float64) error {
	if postID == 0 {
		return fmt.Errorf("event missing post id")
	}
	return h.trending.Bump(ctx, postID, delta)
}

func (h *Handler) removeTrending(ctx context.Context, postID int64) error {
	if postID == 0 {
		return fmt.Errorf("event missing post id")
	}
	return h.trending.Remove(ctx, postID)
}
