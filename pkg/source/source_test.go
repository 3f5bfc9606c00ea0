package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyfeed/feedsync.go/pkg/cache"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/gateway"
)

// stubFeedGateway serves scripted pages and records the cursors it was
// asked for. release, when non-nil, blocks every fetch until closed.
type stubFeedGateway struct {
	mu      sync.Mutex
	pages   []feed.Page
	err     error
	calls   atomic.Int32
	cursors []string
	release chan struct{}
}

func (g *stubFeedGateway) FetchPage(ctx context.Context, req gateway.PageRequest) (feed.Page, error) {
	n := int(g.calls.Add(1)) - 1

	g.mu.Lock()
	g.cursors = append(g.cursors, req.After)
	g.mu.Unlock()

	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return feed.Page{}, ctx.Err()
		}
	}
	if g.err != nil {
		return feed.Page{}, g.err
	}
	if n < len(g.pages) {
		return g.pages[n], nil
	}
	return feed.Page{}, nil
}

func page(cursor string, ids ...string) feed.Page {
	p := feed.Page{EndCursor: cursor, HasNextPage: true}
	for _, id := range ids {
		p.Edges = append(p.Edges, feed.Edge{Node: feed.Entity{ID: id}, Cursor: id})
	}
	return p
}

func TestFetchNextPageAppendsInOrder(t *testing.T) {
	store := cache.New(nil)
	gw := &stubFeedGateway{pages: []feed.Page{
		page("c1", "a", "b"),
		page("c2", "c"),
	}}
	key := feed.NewQueryKey("feed", "popular")
	s := New(store, gw, Options{Key: key})

	require.NoError(t, s.FetchNextPage(context.Background()))
	require.NoError(t, s.FetchNextPage(context.Background()))

	col, ok := store.Read(key)
	require.True(t, ok)
	require.Len(t, col.Pages, 2)
	assert.Equal(t, "c1", col.Pages[0].EndCursor)
	assert.Equal(t, "c2", col.Pages[1].EndCursor)

	// The second request carried the first page's end cursor.
	assert.Equal(t, []string{"", "c1"}, gw.cursors)
}

func TestFetchFailureLeavesCollectionUnchanged(t *testing.T) {
	store := cache.New(nil)
	key := feed.NewQueryKey("feed", "popular")

	okGW := &stubFeedGateway{pages: []feed.Page{page("c1", "a")}}
	s := New(store, okGW, Options{Key: key})
	require.NoError(t, s.FetchNextPage(context.Background()))

	failing := errors.New("boom")
	s2 := New(store, &stubFeedGateway{err: failing}, Options{Key: key})
	err := s2.FetchNextPage(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, failing)

	col, _ := store.Read(key)
	assert.Len(t, col.Pages, 1)
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	store := cache.New(nil)
	gw := &stubFeedGateway{
		pages:   []feed.Page{page("c1", "a")},
		release: make(chan struct{}),
	}
	key := feed.NewQueryKey("feed", "popular")
	s := New(store, gw, Options{Key: key})

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.FetchNextPage(context.Background())
		}()
	}

	// Let every goroutine reach the source before releasing the fetch.
	require.Eventually(t, s.Fetching, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(gw.release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), gw.calls.Load(), "exactly one request in flight per key")

	col, _ := store.Read(key)
	assert.Len(t, col.Pages, 1, "no duplicate page append")
}

func TestSourcesSharingRegistryCoalescePerKey(t *testing.T) {
	store := cache.New(nil)
	gw := &stubFeedGateway{
		pages:   []feed.Page{page("c1", "a", "b")},
		release: make(chan struct{}),
	}
	key := feed.NewQueryKey("feed", "popular")
	flights := NewFlights()
	a := New(store, gw, Options{Key: key, Flights: flights})
	b := New(store, gw, Options{Key: key, Flights: flights})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, s := range []*Source{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.FetchNextPage(context.Background())
		}()
	}

	// Let both sources reach the registry before releasing the fetch.
	require.Eventually(t, a.Fetching, time.Second, time.Millisecond)
	assert.True(t, b.Fetching(), "in-flight state is shared across sources on the key")
	time.Sleep(10 * time.Millisecond)
	close(gw.release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), gw.calls.Load(), "one request serves both sources")

	col, _ := store.Read(key)
	require.Len(t, col.Pages, 1, "one append for the key, not one per source")
	assert.Equal(t, []string{""}, gw.cursors)
}

func TestSourcesOnDifferentKeysFetchIndependently(t *testing.T) {
	store := cache.New(nil)
	gw := &stubFeedGateway{pages: []feed.Page{
		page("c1", "a"),
		page("c2", "b"),
	}}
	flights := NewFlights()
	a := New(store, gw, Options{Key: feed.NewQueryKey("feed", "popular"), Flights: flights})
	b := New(store, gw, Options{Key: feed.NewQueryKey("feed", "history"), Flights: flights})

	require.NoError(t, a.FetchNextPage(context.Background()))
	require.NoError(t, b.FetchNextPage(context.Background()))

	assert.Equal(t, int32(2), gw.calls.Load())
}

func TestEmptyFeedSignalFiresOnce(t *testing.T) {
	store := cache.New(nil)
	gw := &stubFeedGateway{pages: []feed.Page{
		{EndCursor: "c1"}, // empty first page
		{EndCursor: "c2"}, // empty again, must not re-trigger
	}}

	var signals atomic.Int32
	s := New(store, gw, Options{
		Key:     feed.NewQueryKey("feed", "popular"),
		OnEmpty: func() { signals.Add(1) },
	})

	require.NoError(t, s.FetchNextPage(context.Background()))
	require.NoError(t, s.FetchNextPage(context.Background()))

	assert.Equal(t, int32(1), signals.Load())
}

func TestNonEmptyFirstPageNeverSignals(t *testing.T) {
	store := cache.New(nil)
	gw := &stubFeedGateway{pages: []feed.Page{
		page("c1", "a"),
		{EndCursor: "c2"}, // later empty page is not a first-page signal
	}}

	var signals atomic.Int32
	s := New(store, gw, Options{
		Key:     feed.NewQueryKey("feed", "popular"),
		OnEmpty: func() { signals.Add(1) },
	})

	require.NoError(t, s.FetchNextPage(context.Background()))
	require.NoError(t, s.FetchNextPage(context.Background()))

	assert.Equal(t, int32(0), signals.Load())
}

func TestFetchingFlag(t *testing.T) {
	store := cache.New(nil)
	gw := &stubFeedGateway{
		pages:   []feed.Page{page("c1", "a")},
		release: make(chan struct{}),
	}
	s := New(store, gw, Options{Key: feed.NewQueryKey("feed", "popular")})

	assert.False(t, s.Fetching())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.FetchNextPage(context.Background())
	}()

	require.Eventually(t, s.Fetching, time.Second, time.Millisecond)
	close(gw.release)
	<-done
	assert.False(t, s.Fetching())
}
