package mutate

import (
	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/gateway"
)

// Kind enumerates the user actions the dispatcher understands.
type Kind int

const (
	KindUpvote Kind = iota
	KindDownvote
	KindCancelVote
	KindBookmark
	KindRemoveBookmark
	KindHide
	KindDeleteComment
)

func (k Kind) String() string {
	switch k {
	case KindUpvote:
		return "upvote"
	case KindDownvote:
		return "downvote"
	case KindCancelVote:
		return "cancel_vote"
	case KindBookmark:
		return "bookmark"
	case KindRemoveBookmark:
		return "remove_bookmark"
	case KindHide:
		return "hide"
	case KindDeleteComment:
		return "delete_comment"
	default:
		return "unknown"
	}
}

func (k Kind) valid() bool {
	return k >= KindUpvote && k <= KindDeleteComment
}

// Action maps the kind to its wire name.
func (k Kind) Action() gateway.Action {
	switch k {
	case KindUpvote:
		return gateway.ActionUpvote
	case KindDownvote:
		return gateway.ActionDownvote
	case KindCancelVote:
		return gateway.ActionCancelVote
	case KindBookmark:
		return gateway.ActionBookmark
	case KindRemoveBookmark:
		return gateway.ActionRemoveBookmark
	case KindHide:
		return gateway.ActionHide
	case KindDeleteComment:
		return gateway.ActionDeleteComment
	default:
		return ""
	}
}

// Removal reports whether the kind removes the entity from its view instead
// of patching fields in place.
func (k Kind) Removal() bool {
	return k == KindHide || k == KindDeleteComment
}

// family groups kinds for the in-flight guard: a re-fired action in the same
// family against the same entity is refused while one is in flight.
func (k Kind) family() string {
	switch k {
	case KindUpvote, KindDownvote, KindCancelVote:
		return "vote"
	case KindBookmark, KindRemoveBookmark:
		return "bookmark"
	case KindHide:
		return "hide"
	case KindDeleteComment:
		return "delete"
	default:
		return "unknown"
	}
}

// Transition computes the field change a kind applies to the current entity
// state. It is the single transition function used by the originating
// dispatcher and by every bus subscriber, so all caches move through
// identical states.
//
// Vote semantics: only the up state contributes +1 to the visible upvote
// count; down and none contribute 0. Leaving the up state always subtracts
// exactly 1. Re-firing an action the entity is already in yields a zero
// change (idempotent).
func Transition(k Kind, e feed.Entity) feed.Change {
	switch k {
	case KindUpvote:
		if e.VoteState == feed.VoteUp {
			return feed.Change{}
		}
		return feed.Change{
			NumUpvotes: feed.Ptr(e.NumUpvotes + 1),
			VoteState:  feed.Ptr(feed.VoteUp),
		}
	case KindDownvote:
		if e.VoteState == feed.VoteDown {
			return feed.Change{}
		}
		change := feed.Change{VoteState: feed.Ptr(feed.VoteDown)}
		if e.VoteState == feed.VoteUp {
			change.NumUpvotes = feed.Ptr(e.NumUpvotes - 1)
		}
		return change
	case KindCancelVote:
		if e.VoteState == feed.VoteNone {
			return feed.Change{}
		}
		change := feed.Change{VoteState: feed.Ptr(feed.VoteNone)}
		if e.VoteState == feed.VoteUp {
			change.NumUpvotes = feed.Ptr(e.NumUpvotes - 1)
		}
		return change
	case KindBookmark:
		if e.Bookmarked {
			return feed.Change{}
		}
		return feed.Change{Bookmarked: feed.Ptr(true)}
	case KindRemoveBookmark:
		if !e.Bookmarked {
			return feed.Change{}
		}
		return feed.Change{Bookmarked: feed.Ptr(false)}
	default:
		return feed.Change{}
	}
}

// InverseKind returns the mutation that restores the state the entity was in
// before kind was applied. ok=false when no inverse exists (idempotent
// re-fires and removals).
func InverseKind(k Kind, prev feed.Entity) (Kind, bool) {
	switch k {
	case KindUpvote:
		switch prev.VoteState {
		case feed.VoteNone:
			return KindCancelVote, true
		case feed.VoteDown:
			return KindDownvote, true
		}
	case KindDownvote:
		switch prev.VoteState {
		case feed.VoteNone:
			return KindCancelVote, true
		case feed.VoteUp:
			return KindUpvote, true
		}
	case KindCancelVote:
		switch prev.VoteState {
		case feed.VoteUp:
			return KindUpvote, true
		case feed.VoteDown:
			return KindDownvote, true
		}
	case KindBookmark:
		if !prev.Bookmarked {
			return KindRemoveBookmark, true
		}
	case KindRemoveBookmark:
		if prev.Bookmarked {
			return KindBookmark, true
		}
	}
	return 0, false
}
