package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyfeed/feedsync.go/internal/codec"
	"github.com/dailyfeed/feedsync.go/pkg/cache"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
)

var testUpgrader = gorilla.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connFixture(t *testing.T) (*Merger, *cache.Store) {
	t.Helper()
	store := cache.New(nil)
	store.AppendPage(mergeKey, feed.Page{
		Edges: []feed.Edge{{Node: feed.Entity{ID: "p1", NumUpvotes: 4}}},
	})
	m := NewMerger(store, nil)
	m.Watch(mergeKey)
	return m, store
}

func TestConnDeliversEventsToMerger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		payload, err := codec.JSON{}.Marshal(Event{ID: "p1", NumUpvotes: feed.Ptr(10)})
		require.NoError(t, err)
		require.NoError(t, ws.WriteMessage(gorilla.TextMessage, payload))

		// Hold the stream open until the client sends its close frame.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	merger, store := connFixture(t)
	c := NewConn(wsURL(srv), merger, nil,
		WithDialer(&gorilla.Dialer{}),
		WithDecoder(codec.JSON{}),
	)
	require.NoError(t, c.Connect(context.Background()))

	require.Eventually(t, func() bool {
		col, _ := store.Read(mergeKey)
		return col.Pages[0].Edges[0].Node.NumUpvotes == 10
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Close(ctx))
}

func TestConnReconnectsAfterDrop(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		if dials.Add(1) == 1 {
			ws.Close()
			return
		}
		defer ws.Close()
		payload, _ := codec.JSON{}.Marshal(Event{ID: "p1", NumUpvotes: feed.Ptr(99)})
		require.NoError(t, ws.WriteMessage(gorilla.TextMessage, payload))
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	merger, store := connFixture(t)
	c := NewConn(wsURL(srv), merger, nil,
		WithDialer(&gorilla.Dialer{}),
		WithDecoder(codec.JSON{}),
		WithBackoff(&Backoff{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond, Multiplier: 2.0}),
	)
	require.NoError(t, c.Connect(context.Background()))

	require.Eventually(t, func() bool {
		col, _ := store.Read(mergeKey)
		return col.Pages[0].Edges[0].Node.NumUpvotes == 99
	}, 3*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, dials.Load(), int32(2))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Close(ctx))
}

func TestConnConnectFailsOnDeadEndpoint(t *testing.T) {
	merger, _ := connFixture(t)
	c := NewConn("ws://127.0.0.1:1/push", merger, nil, WithDialer(&gorilla.Dialer{}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, c.Connect(ctx))
}
