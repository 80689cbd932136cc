package model

import "time"

const (
	EventCommunityCreated = "community.created"
	EventCommunityDeleted = "community.deleted"
	EventMemberJoined     = "member.joined"
	EventMemberLeft       = "member.left"
	EventMemberRemoved    = "member.removed"
	EventPostCreated      = "post.created"
	EventPostUpdated      = "post.updated"
	EventPostDeleted      = "post.deleted"
	EventPostLiked        = "post.liked"
	EventPostUnliked      = "post.unliked"
	EventCommentCreated   = "comment.created"
	EventCommentUpdated   = "comment.updated"
	EventCommentDeleted   = "comment.deleted"
	EventCommentLiked     = "comment.liked"
	EventCommentUnliked   = "comment.unliked"
	EventPartialFailure   = "saga.partial_failure"
)

// Event is a domain event published after the graph write commits.
type Event struct {
	Type        string         `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	CommunityID string         `json:"community_id,omitempty"`
	ActorID     string         `json:"actor_id,omitempty"`
	OccurredAt  time.Time      `json:"event_time"`
	Payload     map[string]any `json:"payload,omitempty"`
}
