package feedsync

import (
	"context"
	"io"
	"os"

	"github.com/dailyfeed/feedsync.go/pkg/bus"
	"github.com/dailyfeed/feedsync.go/pkg/cache"
	"github.com/dailyfeed/feedsync.go/pkg/gateway"
	"github.com/dailyfeed/feedsync.go/pkg/logger"
	"github.com/dailyfeed/feedsync.go/pkg/mutate"
	"github.com/dailyfeed/feedsync.go/pkg/realtime"
	"github.com/dailyfeed/feedsync.go/pkg/source"
)

// Engine owns the process-wide cache store, the mutation broadcast bus, the
// gateways and the realtime channel. Construct one per process and hand it
// by reference to everything that needs it; there is no ambient singleton.
type Engine struct {
	cfg Config
	log logger.Logger

	store   *cache.Store
	bus     *bus.Bus[mutate.Record]
	merger  *realtime.Merger
	conn    *realtime.Conn
	flights *source.Flights

	feedGW   gateway.FeedGateway
	adGW     gateway.AdGateway
	mutGW    gateway.MutationGateway
	notifier mutate.Notifier
}

type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithLogWriter(w io.Writer) Option {
	return func(e *Engine) { e.log = logger.New(w) }
}

// WithGateways substitutes the remote collaborators, primarily for tests.
func WithGateways(feedGW gateway.FeedGateway, adGW gateway.AdGateway, mutGW gateway.MutationGateway) Option {
	return func(e *Engine) {
		e.feedGW = feedGW
		e.adGW = adGW
		e.mutGW = mutGW
	}
}

// WithNotifier installs the user-facing failure notifier (toast with undo).
func WithNotifier(n mutate.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		log: logger.New(os.Stderr),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.store = cache.New(e.log)
	e.bus = bus.New[mutate.Record]()
	e.merger = realtime.NewMerger(e.store, e.log)
	e.flights = source.NewFlights()

	if e.feedGW == nil || e.adGW == nil || e.mutGW == nil {
		client := gateway.NewClient(cfg.GatewayURL, cfg.GatewayToken, e.log)
		if e.feedGW == nil {
			e.feedGW = client
		}
		if e.adGW == nil {
			e.adGW = client
		}
		if e.mutGW == nil {
			e.mutGW = client
		}
	}
	return e
}

// Connect starts the realtime channel when one is configured. The read loop
// reconnects on its own from here; only the first dial can fail.
func (e *Engine) Connect(ctx context.Context) error {
	if e.cfg.RealtimeURL == "" {
		return nil
	}
	e.conn = realtime.NewConn(e.cfg.RealtimeURL, e.merger, e.log)
	return e.conn.Connect(ctx)
}

// Close aborts the realtime stream. View teardown is separate: views
// unsubscribe themselves on Unmount.
func (e *Engine) Close(ctx context.Context) error {
	if e.conn == nil {
		return nil
	}
	return e.conn.Close(ctx)
}

func (e *Engine) Store() *cache.Store {
	return e.store
}

func (e *Engine) Bus() *bus.Bus[mutate.Record] {
	return e.bus
}

func (e *Engine) Merger() *realtime.Merger {
	return e.merger
}

// Hydrate copies the entity with the given id from any cached collection
// into the single-entity cache, so the single-item view renders without a
// fetch. ok=false when no cached collection displays it.
func (e *Engine) Hydrate(id string) bool {
	for _, key := range e.store.Keys(nil) {
		col, ok := e.store.Read(key)
		if !ok {
			continue
		}
		if pi, ii, found := col.FindByID(id); found {
			e.store.PutEntity(col.Pages[pi].Edges[ii].Node)
			return true
		}
	}
	_, ok := e.store.Entity(id)
	return ok
}
