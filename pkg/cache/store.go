// Package cache holds the process-wide store of page collections and single
// entities, addressed by query key and entity id respectively.
//
// The store is the single source of truth for everything the projector
// renders. Writes are copy-on-write: a patch rebuilds the affected page's
// edge slice and the collection's page slice, so a Collection returned by
// Read is a stable snapshot that later writes never mutate.
package cache

import (
	"strings"
	"sync"

	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/logger"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]feed.Collection
	entities    map[string]feed.Entity
	log         logger.Logger
}

func New(log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop{}
	}
	return &Store{
		collections: make(map[string]feed.Collection),
		entities:    make(map[string]feed.Entity),
		log:         log,
	}
}

// Read returns the collection cached under key. The second return is false
// when nothing is cached yet.
func (s *Store) Read(key feed.QueryKey) (feed.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[key.String()]
	return col, ok
}

// Replace unconditionally overwrites the collection under key. Used for full
// refetches. All coordinates previously handed out against this key become
// stale, which PatchAt tolerates.
func (s *Store) Replace(key feed.QueryKey, col feed.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.collections[key.String()]
	col.Revision = prev.Revision + 1
	s.collections[key.String()] = col
}

// AppendPage appends one page to the collection under key, creating the
// collection if absent. Pages are strictly append-ordered.
func (s *Store) AppendPage(key feed.QueryKey, page feed.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collections[key.String()]
	pages := make([]feed.Page, len(col.Pages)+1)
	copy(pages, col.Pages)
	pages[len(col.Pages)] = page
	col.Pages = pages
	col.Revision++
	s.collections[key.String()] = col
}

// PatchAt applies an updater to the entity at (pageIndex, itemIndex) under
// key, replacing it with the merged copy, and returns the pre-patch entity
// for rollback capture.
//
// Coordinates go stale whenever pages are refetched or items removed, so a
// missing coordinate is not an error: PatchAt returns ok=false and writes
// nothing. Callers must treat that as "nothing to roll back".
func (s *Store) PatchAt(key feed.QueryKey, pageIndex, itemIndex int, up feed.Updater) (feed.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[key.String()]
	if !ok || pageIndex < 0 || pageIndex >= len(col.Pages) {
		s.log.Debug("patch on stale coordinate", "key", key.String(), "page", pageIndex, "item", itemIndex)
		return feed.Entity{}, false
	}
	page := col.Pages[pageIndex]
	if itemIndex < 0 || itemIndex >= len(page.Edges) {
		s.log.Debug("patch on stale coordinate", "key", key.String(), "page", pageIndex, "item", itemIndex)
		return feed.Entity{}, false
	}

	prev := page.Edges[itemIndex].Node
	change := up(prev)
	if change.IsZero() {
		return prev, true
	}

	edges := make([]feed.Edge, len(page.Edges))
	copy(edges, page.Edges)
	edges[itemIndex].Node = change.ApplyTo(prev)
	page.Edges = edges

	pages := make([]feed.Page, len(col.Pages))
	copy(pages, col.Pages)
	pages[pageIndex] = page
	col.Pages = pages
	col.Revision++
	s.collections[key.String()] = col

	return prev, true
}

// RestoreAt writes an entity back to an exact coordinate, for rollback.
// Same stale-coordinate tolerance as PatchAt.
func (s *Store) RestoreAt(key feed.QueryKey, pageIndex, itemIndex int, entity feed.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[key.String()]
	if !ok || pageIndex < 0 || pageIndex >= len(col.Pages) {
		return false
	}
	page := col.Pages[pageIndex]
	if itemIndex < 0 || itemIndex >= len(page.Edges) {
		return false
	}

	edges := make([]feed.Edge, len(page.Edges))
	copy(edges, page.Edges)
	edges[itemIndex].Node = entity
	page.Edges = edges

	pages := make([]feed.Page, len(col.Pages))
	copy(pages, col.Pages)
	pages[pageIndex] = page
	col.Pages = pages
	col.Revision++
	s.collections[key.String()] = col

	return true
}

// RemoveAt deletes the edge at a coordinate and returns it, for hide/delete
// actions. ok=false on stale coordinates, nothing removed.
func (s *Store) RemoveAt(key feed.QueryKey, pageIndex, itemIndex int) (feed.Edge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[key.String()]
	if !ok || pageIndex < 0 || pageIndex >= len(col.Pages) {
		return feed.Edge{}, false
	}
	page := col.Pages[pageIndex]
	if itemIndex < 0 || itemIndex >= len(page.Edges) {
		return feed.Edge{}, false
	}

	removed := page.Edges[itemIndex]
	edges := make([]feed.Edge, 0, len(page.Edges)-1)
	edges = append(edges, page.Edges[:itemIndex]...)
	edges = append(edges, page.Edges[itemIndex+1:]...)
	page.Edges = edges

	pages := make([]feed.Page, len(col.Pages))
	copy(pages, col.Pages)
	pages[pageIndex] = page
	col.Pages = pages
	col.Revision++
	s.collections[key.String()] = col

	return removed, true
}

// InsertAt re-inserts an edge at a coordinate, the inverse of RemoveAt for
// rollback. The item index may equal the page length (append position).
func (s *Store) InsertAt(key feed.QueryKey, pageIndex, itemIndex int, edge feed.Edge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[key.String()]
	if !ok || pageIndex < 0 || pageIndex >= len(col.Pages) {
		return false
	}
	page := col.Pages[pageIndex]
	if itemIndex < 0 || itemIndex > len(page.Edges) {
		return false
	}

	edges := make([]feed.Edge, 0, len(page.Edges)+1)
	edges = append(edges, page.Edges[:itemIndex]...)
	edges = append(edges, edge)
	edges = append(edges, page.Edges[itemIndex:]...)
	page.Edges = edges

	pages := make([]feed.Page, len(col.Pages))
	copy(pages, col.Pages)
	pages[pageIndex] = page
	col.Pages = pages
	col.Revision++
	s.collections[key.String()] = col

	return true
}

// Keys returns the query keys of all cached collections matching the given
// prefix, in unspecified order. An empty prefix matches every collection.
func (s *Store) Keys(prefix feed.QueryKey) []feed.QueryKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []feed.QueryKey
	for k := range s.collections {
		key := feed.QueryKey(splitKey(k))
		if key.HasPrefix(prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

func splitKey(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

// PutEntity stores an entity in the id-keyed single-entity cache backing the
// single-item view.
func (s *Store) PutEntity(e feed.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = e
}

// Entity reads from the single-entity cache.
func (s *Store) Entity(id string) (feed.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	return e, ok
}

// PatchEntity applies an updater to the cached entity with the given id and
// returns the pre-patch value. No-op with ok=false when the id is not cached.
func (s *Store) PatchEntity(id string, up feed.Updater) (feed.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.entities[id]
	if !ok {
		return feed.Entity{}, false
	}
	change := up(prev)
	if !change.IsZero() {
		s.entities[id] = change.ApplyTo(prev)
	}
	return prev, true
}

// RestoreEntity writes an entity back into the single-entity cache verbatim,
// for rollback.
func (s *Store) RestoreEntity(e feed.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = e
}
