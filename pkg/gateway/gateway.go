// Package gateway defines the engine's three remote collaborators: the
// paginated feed query endpoint, the ad-serving endpoint and the mutation
// endpoint. The HTTP implementation lives in http.go; tests substitute stubs.
package gateway

import (
	"context"

	"github.com/dailyfeed/feedsync.go/pkg/feed"
)

// PageRequest carries the cursor-based pagination parameters of one feed
// page fetch.
type PageRequest struct {
	Filters map[string]string `json:"filters,omitempty"`
	After   string            `json:"after,omitempty"`
	First   int               `json:"first"`
}

// FeedGateway retrieves ordered pages of feed entities.
type FeedGateway interface {
	FetchPage(ctx context.Context, req PageRequest) (feed.Page, error)
}

// AdGateway retrieves one ad payload per call. The endpoint uses its own
// time-based cursor; the only pagination state the client carries is whether
// a previous ad was fetched for this session.
type AdGateway interface {
	FetchAd(ctx context.Context, hasPrevious bool) (feed.Ad, error)
}

// Action is the wire name of a mutation.
type Action string

const (
	ActionUpvote         Action = "upvote"
	ActionDownvote       Action = "downvote"
	ActionCancelVote     Action = "cancel_vote"
	ActionBookmark       Action = "bookmark"
	ActionRemoveBookmark Action = "remove_bookmark"
	ActionHide           Action = "hide"
	ActionDeleteComment  Action = "delete_comment"
)

// MutationGateway submits entity mutations. Submit returns nil on server
// acknowledgement and an error wrapping feed.ErrMutation otherwise.
// Authenticated reports whether a user session is present; the dispatcher
// short-circuits with feed.ErrAuthRequired before patching anything when it
// is not.
type MutationGateway interface {
	Submit(ctx context.Context, entityID string, action Action) error
	Authenticated() bool
}
