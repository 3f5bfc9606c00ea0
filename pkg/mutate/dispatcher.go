// Package mutate implements the optimistic mutation pipeline: a user intent
// is patched into every relevant cache representation synchronously, the
// network call is issued, and on failure the captured rollbacks restore the
// exact pre-patch state.
package mutate

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dailyfeed/feedsync.go/pkg/bus"
	"github.com/dailyfeed/feedsync.go/pkg/cache"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/gateway"
	"github.com/dailyfeed/feedsync.go/pkg/logger"
)

// State is the lifecycle of one intent.
type State int

const (
	StateIdle State = iota
	StateApplying
	StateInFlight
	StateConfirmed
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateApplying:
		return "applying"
	case StateInFlight:
		return "in_flight"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Notifier receives the user-facing failure notification. Undo, when
// non-nil, re-issues the inverse mutation.
type Notifier interface {
	MutationFailed(intent Intent, err error, undo func(context.Context) error)
}

// Options configures a Dispatcher.
type Options struct {
	// View names the representation this dispatcher originates from; it is
	// carried on every record so subscribers can skip their own mutations.
	View string
	// Key is the query key of the origin view's collection. Zero-length is
	// allowed for views backed only by the entity cache.
	Key feed.QueryKey
	// OnStateChange, when set, observes every state transition.
	OnStateChange func(Intent, State)
	Notifier      Notifier
	Logger        logger.Logger
}

// Dispatcher applies mutation intents optimistically. One dispatcher belongs
// to one view; its in-flight guard is local to the instance, so two views
// can still race contradictory mutations for the same entity. That race
// resolves last-write-wins at the field level (see Dispatch).
type Dispatcher struct {
	store *cache.Store
	gw    gateway.MutationGateway
	bus   *bus.Bus[Record]
	opts  Options
	log   logger.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewDispatcher(store *cache.Store, gw gateway.MutationGateway, b *bus.Bus[Record], opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}
	return &Dispatcher{
		store:    store,
		gw:       gw,
		bus:      b,
		opts:     opts,
		log:      log,
		inFlight: make(map[string]struct{}),
	}
}

// Dispatch runs one intent through the pipeline:
//
//	Idle -> Applying -> InFlight -> Confirmed | RolledBack
//
// Applying is synchronous and completes before the network call is issued,
// so the projector always observes the patched state first. Validation and
// auth failures short-circuit before any patch; no rollback is involved.
//
// A second call for the same logical action (same entity, same kind family)
// is refused with feed.ErrMutationInFlight while the first is in flight.
// The guard is per-dispatcher: dispatchers on other views are not covered,
// and concurrent contradictory mutations from two views settle
// last-write-wins per field.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, entityID string) error {
	if !kind.valid() {
		return &feed.ValidationError{Field: "kind", Reason: "unknown mutation kind"}
	}
	if entityID == "" {
		return &feed.ValidationError{Field: "entityId", Reason: "must not be empty"}
	}
	if !d.gw.Authenticated() {
		return feed.ErrAuthRequired
	}

	guard := kind.family() + ":" + entityID
	d.mu.Lock()
	if _, busy := d.inFlight[guard]; busy {
		d.mu.Unlock()
		return feed.ErrMutationInFlight
	}
	d.inFlight[guard] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.inFlight, guard)
		d.mu.Unlock()
	}()

	intent := Intent{
		ID:         uuid.New(),
		EntityID:   entityID,
		Kind:       kind,
		OriginView: d.opts.View,
	}
	d.setState(intent, StateApplying)

	// Capture the pre-patch entity for the inverse mutation before any
	// patch lands.
	prev, havePrev := d.currentEntity(entityID)

	rec := Record{Intent: intent}
	if kind == KindDeleteComment && havePrev {
		rec.ParentID = prev.ParentID
	}

	var rollbacks []func()
	if len(d.opts.Key) > 0 {
		if rollback, applied := ApplyToCollection(d.store, d.opts.Key, rec); applied && rollback != nil {
			rollbacks = append(rollbacks, rollback)
		}
	}
	if rollback, applied := ApplyToEntityCache(d.store, rec); applied && rollback != nil {
		rollbacks = append(rollbacks, rollback)
	}

	d.setState(intent, StateInFlight)
	err := d.gw.Submit(ctx, entityID, kind.Action())
	if err == nil {
		d.setState(intent, StateConfirmed)
		d.bus.Publish(rec)
		d.log.Debug("mutation confirmed", "kind", kind.String(), "entity", entityID, "view", d.opts.View)
		return nil
	}

	// Rollbacks replay in the reverse order they were captured. Each
	// closure is owned by this call and runs at most once.
	for i := len(rollbacks) - 1; i >= 0; i-- {
		rollbacks[i]()
	}
	d.setState(intent, StateRolledBack)
	d.log.Warn("mutation rolled back", "kind", kind.String(), "entity", entityID, "error", err)

	if d.opts.Notifier != nil {
		d.opts.Notifier.MutationFailed(intent, err, d.undoFunc(kind, prev, havePrev, entityID))
	}

	if errors.Is(err, feed.ErrMutation) {
		return err
	}
	return errors.Join(feed.ErrMutation, err)
}

func (d *Dispatcher) undoFunc(kind Kind, prev feed.Entity, havePrev bool, entityID string) func(context.Context) error {
	if !havePrev {
		return nil
	}
	inverse, ok := InverseKind(kind, prev)
	if !ok {
		return nil
	}
	return func(ctx context.Context) error {
		return d.Dispatch(ctx, inverse, entityID)
	}
}

// currentEntity reads the entity's pre-patch state from whichever
// representation has it, preferring the origin collection.
func (d *Dispatcher) currentEntity(entityID string) (feed.Entity, bool) {
	if len(d.opts.Key) > 0 {
		if col, ok := d.store.Read(d.opts.Key); ok {
			if pi, ii, found := col.FindByID(entityID); found {
				return col.Pages[pi].Edges[ii].Node, true
			}
		}
	}
	return d.store.Entity(entityID)
}

func (d *Dispatcher) setState(intent Intent, s State) {
	if d.opts.OnStateChange != nil {
		d.opts.OnStateChange(intent, s)
	}
}
