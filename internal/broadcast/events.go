package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"spendshare/internal/model"
)

// Event types published to the shared topic. Every engagement mutation
// produces exactly one of these.
const (
	EventNewPost        = "NEW_POST"
	EventPostDeleted    = "POST_DELETED"
	EventPostLiked      = "POST_LIKED"
	EventPostUnliked    = "POST_UNLIKED"
	EventPostReposted   = "POST_REPOSTED"
	EventPostShared     = "POST_SHARED"
	EventNewComment     = "NEW_COMMENT"
	EventCommentDeleted = "COMMENT_DELETED"
	EventCommentLiked   = "COMMENT_LIKED"
	EventCommentUnliked = "COMMENT_UNLIKED"
)

// TargetKind discriminates like targets.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Stream names
const (
	StreamPosts = "stream:posts"
)

// Consumer group name for broadcast workers
const (
	ConsumerGroupBroadcast = "broadcast_workers"
)

// Event is the envelope published to the shared topic. All mutation types
// share this structure; counter fields are pointers so an authoritative zero
// still serializes.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when the event occurred

	PostID          int64  `json:"post_id,omitempty"`
	CommentID       int64  `json:"comment_id,omitempty"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
	ActorID         int64  `json:"actor_id,omitempty"`
	Text            string `json:"text,omitempty"`

	LikeCount    *int `json:"likes_count,omitempty"`
	CommentCount *int `json:"comments_count,omitempty"`
	RepostCount  *int `json:"reposts_count,omitempty"`
	ShareCount   *int `json:"shares_count,omitempty"`
}

// NewPostCreatedEvent announces a freshly created post.
func NewPostCreatedEvent(post *model.Post) Event {
	return Event{
		Type:         EventNewPost,
		Timestamp:    time.Now().Unix(),
		PostID:       post.ID,
		ActorID:      post.AuthorID,
		Text:         post.Text,
		LikeCount:    intPtr(post.LikeCount),
		CommentCount: intPtr(post.CommentCount),
	}
}

// NewPostDeletedEvent announces a post removal.
func NewPostDeletedEvent(postID, actorID int64) Event {
	return Event{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
	}
}

// NewLikeToggledEvent announces a like or unlike on a post or comment,
// carrying the authoritative post-mutation count.
func NewLikeToggledEvent(kind TargetKind, targetID, actorID int64, liked bool, likeCount int) Event {
	e := Event{
		Timestamp: time.Now().Unix(),
		ActorID:   actorID,
		LikeCount: intPtr(likeCount),
	}
	switch kind {
	case TargetComment:
		e.CommentID = targetID
		if liked {
			e.Type = EventCommentLiked
		} else {
			e.Type = EventCommentUnliked
		}
	default:
		e.PostID = targetID
		if liked {
			e.Type = EventPostLiked
		} else {
			e.Type = EventPostUnliked
		}
	}
	return e
}

// NewCommentCreatedEvent announces a new comment together with the post's
// updated comment count.
func NewCommentCreatedEvent(comment *model.Comment, commentCount int) Event {
	return Event{
		Type:            EventNewComment,
		Timestamp:       time.Now().Unix(),
		PostID:          comment.PostID,
		CommentID:       comment.ID,
		ParentCommentID: comment.ParentCommentID,
		ActorID:         comment.AuthorID,
		Text:            comment.Text,
		CommentCount:    intPtr(commentCount),
	}
}

// NewCommentDeletedEvent announces a comment removal together with the post's
// updated comment count.
func NewCommentDeletedEvent(commentID, postID, actorID int64, commentCount int) Event {
	return Event{
		Type:         EventCommentDeleted,
		Timestamp:    time.Now().Unix(),
		PostID:       postID,
		CommentID:    commentID,
		ActorID:      actorID,
		CommentCount: intPtr(commentCount),
	}
}

// NewPostRepostedEvent announces a repost with the updated repost count.
func NewPostRepostedEvent(postID, actorID int64, repostCount int) Event {
	return Event{
		Type:        EventPostReposted,
		Timestamp:   time.Now().Unix(),
		PostID:      postID,
		ActorID:     actorID,
		RepostCount: intPtr(repostCount),
	}
}

// NewPostSharedEvent announces a share with the updated share count.
func NewPostSharedEvent(postID, actorID int64, shareCount int) Event {
	return Event{
		Type:       EventPostShared,
		Timestamp:  time.Now().Unix(),
		PostID:     postID,
		ActorID:    actorID,
		ShareCount: intPtr(shareCount),
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}

func intPtr(v int) *int {
	return &v
}
