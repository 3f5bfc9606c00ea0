package feedsync

import (
	"context"

	"github.com/dailyfeed/feedsync.go/pkg/ads"
	"github.com/dailyfeed/feedsync.go/pkg/bus"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/mutate"
	"github.com/dailyfeed/feedsync.go/pkg/project"
	"github.com/dailyfeed/feedsync.go/pkg/source"
)

// FeedViewConfig configures one collection-backed view.
type FeedViewConfig struct {
	// Name identifies the view on mutation records so it skips mirroring
	// its own mutations.
	Name string
	// Key addresses the view's collection in the cache store.
	Key feed.QueryKey
	// Filters are forwarded on every page request.
	Filters map[string]string
	// Ads configures interleaving enablement; the zero value disables it
	// (no content query).
	Ads ads.Config
	// MarketingCTA, when non-nil, preempts the page-0 ad slot.
	MarketingCTA *feed.MarketingCTA
	// ShowUserAcquisition preempts the page-0 slot after the marketing
	// card check.
	ShowUserAcquisition bool
	// OnEmpty fires exactly once if the first page ever fetched is empty.
	OnEmpty func()
}

// FeedView binds a paginated source, the ad interleaver, the projector and a
// mutation dispatcher to one collection. The reading-history view is the
// same binding with a different key and ads disabled.
type FeedView struct {
	name   string
	key    feed.QueryKey
	engine *Engine

	source     *source.Source
	ads        *ads.Interleaver
	projector  *project.Projector
	dispatcher *mutate.Dispatcher

	sub     *bus.Subscription
	unwatch func()
}

// NewFeedView builds the binding. The view is inert until Mount.
func (e *Engine) NewFeedView(cfg FeedViewConfig) *FeedView {
	v := &FeedView{
		name:   cfg.Name,
		key:    cfg.Key,
		engine: e,
	}

	v.source = source.New(e.store, e.feedGW, source.Options{
		Key:      cfg.Key,
		Filters:  cfg.Filters,
		PageSize: e.cfg.PageSize,
		OnEmpty:  cfg.OnEmpty,
		Logger:   e.log,
		Flights:  e.flights,
	})

	adCfg := cfg.Ads
	if adCfg.MinFirstPageEdges == 0 {
		adCfg.MinFirstPageEdges = e.cfg.MinFirstPageEdges
	}
	v.ads = ads.New(e.store, e.adGW, cfg.Key, adCfg, e.log)

	v.projector = project.New(project.Config{
		AdSlotIndex:         e.cfg.AdSlotIndex,
		PlaceholdersPerPage: e.cfg.PlaceholdersPerPage,
		MarketingCTA:        cfg.MarketingCTA,
		ShowUserAcquisition: cfg.ShowUserAcquisition,
	})

	v.dispatcher = mutate.NewDispatcher(e.store, e.mutGW, e.bus, mutate.Options{
		View:     cfg.Name,
		Key:      cfg.Key,
		Notifier: e.notifier,
		Logger:   e.log,
	})

	return v
}

// Mount subscribes the view to the broadcast bus and registers its
// collection as a realtime merge target. Mutations committed by other views
// are mirrored in by locating the entity in this collection by id; if it is
// not displayed here, the record is a silent no-op.
func (v *FeedView) Mount() {
	if v.sub != nil {
		return
	}
	v.sub = v.engine.bus.Subscribe(
		mutate.MatchNotOrigin(v.name),
		func(rec mutate.Record) {
			mutate.ApplyToCollection(v.engine.store, v.key, rec)
		},
	)
	v.unwatch = v.engine.merger.Watch(v.key)
}

// Unmount deregisters bus and realtime subscriptions. In-flight page or
// mutation requests are not cancelled; their responses land on coordinates
// that may have gone stale, which the store tolerates as no-ops.
func (v *FeedView) Unmount() {
	if v.sub != nil {
		v.sub.Unsubscribe()
		v.sub = nil
	}
	if v.unwatch != nil {
		v.unwatch()
		v.unwatch = nil
	}
}

// LoadMore fetches the next feed page and reconciles ad alignment.
func (v *FeedView) LoadMore(ctx context.Context) error {
	if err := v.source.FetchNextPage(ctx); err != nil {
		return err
	}
	if err := v.ads.Reconcile(ctx); err != nil {
		// Ad misalignment is recoverable: the slot renders a placeholder
		// until the next reconcile, the feed itself is intact.
		v.engine.log.Debug("ad reconcile failed", "view", v.name, "error", err)
	}
	return nil
}

// Items projects the current cache state into the flat render list.
func (v *FeedView) Items() []feed.Item {
	col, _ := v.engine.store.Read(v.key)
	return v.projector.Project(col, v.ads.Collection(), v.source.Fetching(), v.ads.Enabled())
}

func (v *FeedView) Upvote(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindUpvote, entityID)
}

func (v *FeedView) Downvote(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindDownvote, entityID)
}

func (v *FeedView) CancelVote(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindCancelVote, entityID)
}

func (v *FeedView) Bookmark(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindBookmark, entityID)
}

func (v *FeedView) RemoveBookmark(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindRemoveBookmark, entityID)
}

func (v *FeedView) Hide(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindHide, entityID)
}

func (v *FeedView) DeleteComment(ctx context.Context, commentID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindDeleteComment, commentID)
}

// ItemView is the single-item representation, backed by the id-keyed entity
// cache instead of a page collection.
type ItemView struct {
	name   string
	engine *Engine

	dispatcher *mutate.Dispatcher
	sub        *bus.Subscription
}

func (e *Engine) NewItemView(name string) *ItemView {
	return &ItemView{
		name:   name,
		engine: e,
		dispatcher: mutate.NewDispatcher(e.store, e.mutGW, e.bus, mutate.Options{
			View:     name,
			Notifier: e.notifier,
			Logger:   e.log,
		}),
	}
}

func (v *ItemView) Mount() {
	if v.sub != nil {
		return
	}
	// Removal kinds are excluded: the origin dispatcher already patched
	// the shared entity cache, and a second parent-count adjustment would
	// not be idempotent the way the vote/bookmark transitions are.
	v.sub = v.engine.bus.Subscribe(
		mutate.MatchAll(
			mutate.MatchNotOrigin(v.name),
			mutate.MatchKinds(
				mutate.KindUpvote, mutate.KindDownvote, mutate.KindCancelVote,
				mutate.KindBookmark, mutate.KindRemoveBookmark,
			),
		),
		func(rec mutate.Record) {
			mutate.ApplyToEntityCache(v.engine.store, rec)
		},
	)
}

func (v *ItemView) Unmount() {
	if v.sub != nil {
		v.sub.Unsubscribe()
		v.sub = nil
	}
}

// Entity reads the cached entity for display.
func (v *ItemView) Entity(id string) (feed.Entity, bool) {
	return v.engine.store.Entity(id)
}

func (v *ItemView) Upvote(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindUpvote, entityID)
}

func (v *ItemView) CancelVote(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindCancelVote, entityID)
}

func (v *ItemView) Downvote(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindDownvote, entityID)
}

func (v *ItemView) Bookmark(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindBookmark, entityID)
}

func (v *ItemView) RemoveBookmark(ctx context.Context, entityID string) error {
	return v.dispatcher.Dispatch(ctx, mutate.KindRemoveBookmark, entityID)
}
