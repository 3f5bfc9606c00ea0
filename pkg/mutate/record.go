package mutate

import (
	"github.com/google/uuid"

	"github.com/dailyfeed/feedsync.go/pkg/cache"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
)

// Intent is one user action entering the dispatcher.
type Intent struct {
	ID         uuid.UUID
	EntityID   string
	Kind       Kind
	OriginView string
}

// Record is what the dispatcher publishes to the broadcast bus after a
// mutation is committed. Subscribers re-apply the same transition to their
// own cache representation; they never receive pre-computed field values, so
// each cache moves from its own current state.
type Record struct {
	Intent Intent
	// ParentID carries a deleted comment's post id, so a representation
	// that displays the parent but not the comment can still adjust the
	// denormalized comment count.
	ParentID string
}

// MatchKinds builds a bus matcher accepting records of the given kinds.
func MatchKinds(kinds ...Kind) func(Record) bool {
	return func(r Record) bool {
		for _, k := range kinds {
			if r.Intent.Kind == k {
				return true
			}
		}
		return false
	}
}

// MatchNotOrigin builds a bus matcher rejecting records that originated from
// the given view, so a view does not re-apply its own mutation.
func MatchNotOrigin(view string) func(Record) bool {
	return func(r Record) bool {
		return r.Intent.OriginView != view
	}
}

// MatchAll combines matchers conjunctively.
func MatchAll(matchers ...func(Record) bool) func(Record) bool {
	return func(r Record) bool {
		for _, m := range matchers {
			if !m(r) {
				return false
			}
		}
		return true
	}
}

// ApplyToCollection mirrors a committed mutation into the collection cached
// under key: the entity is located by id with a linear scan and the same
// transition the origin used is applied at its coordinates. If the entity is
// not present in this view the call is a silent no-op.
//
// The returned rollback restores exactly what was written, at the exact
// coordinates, and is nil when nothing was applied.
func ApplyToCollection(store *cache.Store, key feed.QueryKey, rec Record) (rollback func(), applied bool) {
	col, ok := store.Read(key)
	if !ok {
		return nil, false
	}
	pageIndex, itemIndex, found := col.FindByID(rec.Intent.EntityID)
	if !found {
		// A deleted comment's parent may be displayed here even though
		// the comment itself is not; its count still adjusts.
		if rec.Intent.Kind == KindDeleteComment && rec.ParentID != "" {
			return applyParentCountDelta(store, key, rec.ParentID, -1)
		}
		return nil, false
	}

	if rec.Intent.Kind.Removal() {
		return applyRemoval(store, key, rec, pageIndex, itemIndex)
	}

	prev, ok := store.PatchAt(key, pageIndex, itemIndex, func(e feed.Entity) feed.Change {
		return Transition(rec.Intent.Kind, e)
	})
	if !ok {
		return nil, false
	}
	return func() {
		store.RestoreAt(key, pageIndex, itemIndex, prev)
	}, true
}

func applyRemoval(store *cache.Store, key feed.QueryKey, rec Record, pageIndex, itemIndex int) (func(), bool) {
	edge, ok := store.RemoveAt(key, pageIndex, itemIndex)
	if !ok {
		return nil, false
	}
	rollback := func() {
		store.InsertAt(key, pageIndex, itemIndex, edge)
	}

	// Removing a comment adjusts the parent post's denormalized comment
	// count in the same patch, when the parent is displayed here too.
	if rec.Intent.Kind == KindDeleteComment {
		parentID := rec.ParentID
		if parentID == "" {
			parentID = edge.Node.ParentID
		}
		if parentRollback, ok := applyParentCountDelta(store, key, parentID, -1); ok {
			removal := rollback
			rollback = func() {
				parentRollback()
				removal()
			}
		}
	}
	return rollback, true
}

// ApplyToEntityCache mirrors a committed mutation into the id-keyed single
// entity cache. Silent no-op when the entity is not cached.
func ApplyToEntityCache(store *cache.Store, rec Record) (rollback func(), applied bool) {
	if rec.Intent.Kind.Removal() {
		// The single-item view has no page to remove from; a deleted
		// comment only reflects on its parent's comment count.
		if rec.Intent.Kind == KindDeleteComment {
			parentID := rec.ParentID
			if parentID == "" {
				if comment, ok := store.Entity(rec.Intent.EntityID); ok {
					parentID = comment.ParentID
				}
			}
			if parentID != "" {
				return patchEntityCount(store, parentID, -1)
			}
		}
		return nil, false
	}

	prev, ok := store.PatchEntity(rec.Intent.EntityID, func(e feed.Entity) feed.Change {
		return Transition(rec.Intent.Kind, e)
	})
	if !ok {
		return nil, false
	}
	return func() {
		store.RestoreEntity(prev)
	}, true
}

func applyParentCountDelta(store *cache.Store, key feed.QueryKey, parentID string, delta int) (func(), bool) {
	col, ok := store.Read(key)
	if !ok {
		return nil, false
	}
	pageIndex, itemIndex, found := col.FindByID(parentID)
	if !found {
		return nil, false
	}
	prev, ok := store.PatchAt(key, pageIndex, itemIndex, func(e feed.Entity) feed.Change {
		return feed.Change{NumComments: feed.Ptr(e.NumComments + delta)}
	})
	if !ok {
		return nil, false
	}
	return func() {
		store.RestoreAt(key, pageIndex, itemIndex, prev)
	}, true
}

func patchEntityCount(store *cache.Store, id string, delta int) (func(), bool) {
	prev, ok := store.PatchEntity(id, func(e feed.Entity) feed.Change {
		return feed.Change{NumComments: feed.Ptr(e.NumComments + delta)}
	})
	if !ok {
		return nil, false
	}
	return func() {
		store.RestoreEntity(prev)
	}, true
}
