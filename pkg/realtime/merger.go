// Package realtime consumes server-pushed entity-engagement events and
// patches the matching cached item in place, bypassing the mutation
// dispatcher entirely.
package realtime

import (
	"sync"

	"github.com/dailyfeed/feedsync.go/pkg/cache"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/logger"
)

// Merger applies events to whichever watched collections currently display
// the entity, plus the single-entity cache.
type Merger struct {
	store *cache.Store
	log   logger.Logger

	mu   sync.Mutex
	keys []feed.QueryKey
}

func NewMerger(store *cache.Store, log logger.Logger) *Merger {
	if log == nil {
		log = logger.Nop{}
	}
	return &Merger{store: store, log: log}
}

// Watch registers a collection as a merge target and returns the
// deregistration func for view teardown.
func (m *Merger) Watch(key feed.QueryKey) func() {
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, k := range m.keys {
				if k.Equal(key) {
					m.keys = append(m.keys[:i], m.keys[i+1:]...)
					return
				}
			}
		})
	}
}

// Apply shallow-merges the event's present fields into the first matching
// edge of every watched collection, and into the entity cache. An entity
// displayed nowhere drops the event. Returns how many representations were
// patched.
//
// No ordering is guaranteed between an event and an in-flight optimistic
// mutation for the same entity: the merge is last-write-wins per field. A
// push can therefore overwrite a field that was just changed optimistically
// and not yet confirmed; there is no versioning protocol on the channel to
// resolve that, and this layer does not invent one.
func (m *Merger) Apply(ev Event) int {
	change := ev.Change()
	if ev.ID == "" || change.IsZero() {
		return 0
	}

	m.mu.Lock()
	keys := make([]feed.QueryKey, len(m.keys))
	copy(keys, m.keys)
	m.mu.Unlock()

	patched := 0
	for _, key := range keys {
		col, ok := m.store.Read(key)
		if !ok {
			continue
		}
		pageIndex, itemIndex, found := col.FindByID(ev.ID)
		if !found {
			continue
		}
		if _, ok := m.store.PatchAt(key, pageIndex, itemIndex, func(feed.Entity) feed.Change {
			return change
		}); ok {
			patched++
		}
	}

	if _, ok := m.store.PatchEntity(ev.ID, func(feed.Entity) feed.Change {
		return change
	}); ok {
		patched++
	}

	if patched == 0 {
		m.log.Debug("event dropped, entity not displayed", "entity", ev.ID)
	}
	return patched
}
