package feed

import (
	"errors"
	"fmt"
)

// Errors
var (
	// ErrFetch indicates a page or ad retrieval failed; the affected
	// collection is left unchanged and the caller may retry.
	ErrFetch = errors.New("feed fetch failed")

	// ErrMutation indicates the server rejected or the transport lost a
	// mutation after it was optimistically applied; the dispatcher has
	// already rolled the cache back when this is returned.
	ErrMutation = errors.New("mutation failed")

	// ErrAuthRequired indicates a mutation was attempted while logged out.
	// It is returned before any cache patch.
	ErrAuthRequired = errors.New("authentication required")

	// ErrMutationInFlight indicates the same logical action already has a
	// request in flight on this dispatcher.
	ErrMutationInFlight = errors.New("mutation already in flight")
)

// ValidationError reports an invalid mutation input. It is returned
// synchronously before any optimistic patch, so no rollback is involved.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
