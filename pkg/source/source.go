// Package source implements cursor-based retrieval of one page collection.
//
// A source owns pagination state for exactly one query key: the cursor lives
// in the cached collection itself, the in-flight bookkeeping in a Flights
// registry keyed by query key. Concurrent FetchNextPage calls for the same
// key coalesce onto one request — across every source sharing the registry,
// not just within one instance — so a page is never appended twice.
package source

import (
	"context"
	"sync"

	"github.com/dailyfeed/feedsync.go/pkg/cache"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/gateway"
	"github.com/dailyfeed/feedsync.go/pkg/logger"
)

// EmptyFeedFunc is invoked exactly once, when the first page ever returned
// for this source has zero edges.
type EmptyFeedFunc func()

type Options struct {
	Key      feed.QueryKey
	Filters  map[string]string
	PageSize int
	OnEmpty  EmptyFeedFunc
	Logger   logger.Logger
	// Flights is the shared per-key coalescing registry. Sources bound to
	// the same key must share one, or concurrent fetches can append the
	// same page twice. Nil falls back to a private registry.
	Flights *Flights
}

type flight struct {
	done chan struct{}
	err  error
}

// Flights coalesces page fetches per query key. One registry is shared by
// every source the engine constructs, so a second view bound to an
// already-used key joins the key's in-flight request instead of issuing a
// duplicate.
type Flights struct {
	mu sync.Mutex
	m  map[string]*flight
}

func NewFlights() *Flights {
	return &Flights{m: make(map[string]*flight)}
}

// begin returns the flight for key and whether the caller leads it. A
// non-leader waits on the flight's done channel.
func (fl *Flights) begin(key string) (*flight, bool) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if f, ok := fl.m[key]; ok {
		return f, false
	}
	f := &flight{done: make(chan struct{})}
	fl.m[key] = f
	return f, true
}

func (fl *Flights) end(key string) {
	fl.mu.Lock()
	delete(fl.m, key)
	fl.mu.Unlock()
}

func (fl *Flights) active(key string) bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	_, ok := fl.m[key]
	return ok
}

type Source struct {
	key      feed.QueryKey
	filters  map[string]string
	pageSize int
	onEmpty  EmptyFeedFunc

	store   *cache.Store
	gw      gateway.FeedGateway
	log     logger.Logger
	flights *Flights

	mu            sync.Mutex
	fetchedOnce   bool
	emptySignaled bool
}

func New(store *cache.Store, gw gateway.FeedGateway, opts Options) *Source {
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 7
	}
	flights := opts.Flights
	if flights == nil {
		flights = NewFlights()
	}
	return &Source{
		key:      opts.Key,
		filters:  opts.Filters,
		pageSize: pageSize,
		onEmpty:  opts.OnEmpty,
		store:    store,
		gw:       gw,
		log:      log,
		flights:  flights,
	}
}

func (s *Source) Key() feed.QueryKey {
	return s.key
}

// Fetching reports whether a page request for this source's key is
// currently in flight. The projector uses this to append trailing
// placeholder rows.
func (s *Source) Fetching() bool {
	return s.flights.active(s.key.String())
}

// FetchNextPage requests the page after the collection's current end cursor
// and appends it. If a fetch for the same key is already in flight anywhere
// in the shared registry, the call waits for it and returns its result
// instead of issuing a second request.
//
// On failure the collection is left unchanged and the error wraps
// feed.ErrFetch.
func (s *Source) FetchNextPage(ctx context.Context) error {
	f, leader := s.flights.begin(s.key.String())
	if !leader {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return f.err
		}
	}

	f.err = s.fetch(ctx)

	s.flights.end(s.key.String())
	close(f.done)

	return f.err
}

func (s *Source) fetch(ctx context.Context) error {
	col, _ := s.store.Read(s.key)
	req := gateway.PageRequest{
		Filters: s.filters,
		After:   col.LastCursor(),
		First:   s.pageSize,
	}

	page, err := s.gw.FetchPage(ctx, req)
	if err != nil {
		s.log.Debug("page fetch failed", "key", s.key.String(), "error", err)
		return err
	}

	s.store.AppendPage(s.key, page)
	s.log.Debug("page appended", "key", s.key.String(), "edges", len(page.Edges))

	s.mu.Lock()
	first := !s.fetchedOnce
	s.fetchedOnce = true
	signal := first && len(page.Edges) == 0 && !s.emptySignaled
	if signal {
		s.emptySignaled = true
	}
	s.mu.Unlock()

	if signal && s.onEmpty != nil {
		s.onEmpty()
	}
	return nil
}
