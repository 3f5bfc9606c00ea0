// Package ads keeps a secondary collection of ad payloads aligned with the
// feed: the ad count never lags the feed page count by more than one.
package ads

import (
	"context"
	"sync"

	"github.com/dailyfeed/feedsync.go/pkg/cache"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/gateway"
	"github.com/dailyfeed/feedsync.go/pkg/logger"
)

// Config holds the enablement inputs and slot placement settings.
type Config struct {
	// AdFreePlan disables interleaving entirely for paying users.
	AdFreePlan bool
	// HasQuery reports whether a content query is present; without one
	// there is no feed to interleave into.
	HasQuery bool
	// PreviewSurface disables interleaving on preview renders.
	PreviewSurface bool
	// MinFirstPageEdges, when > 0, requires the first feed page to have at
	// least that many edges before any ad is fetched.
	MinFirstPageEdges int
}

// Interleaver owns the ad collection for one feed. Per the cache write
// policy it only appends to or replaces its own collection; entity fields
// are never written here.
type Interleaver struct {
	feedKey feed.QueryKey
	cfg     Config

	store *cache.Store
	gw    gateway.AdGateway
	log   logger.Logger

	mu       sync.Mutex
	ads      feed.AdCollection
	fetching bool
}

func New(store *cache.Store, gw gateway.AdGateway, feedKey feed.QueryKey, cfg Config, log logger.Logger) *Interleaver {
	if log == nil {
		log = logger.Nop{}
	}
	return &Interleaver{
		feedKey: feedKey,
		cfg:     cfg,
		store:   store,
		gw:      gw,
		log:     log,
	}
}

// Collection returns a snapshot of the aligned ad collection.
func (il *Interleaver) Collection() feed.AdCollection {
	il.mu.Lock()
	defer il.mu.Unlock()
	return il.ads
}

// Enabled evaluates the enablement predicate against the current feed
// collection. The first-page length clause only applies once a first page
// exists; an empty collection defers the decision.
func (il *Interleaver) Enabled() bool {
	if il.cfg.AdFreePlan || !il.cfg.HasQuery || il.cfg.PreviewSurface {
		return false
	}
	if il.cfg.MinFirstPageEdges > 0 {
		col, ok := il.store.Read(il.feedKey)
		if ok && len(col.Pages) > 0 && len(col.Pages[0].Edges) < il.cfg.MinFirstPageEdges {
			return false
		}
	}
	return true
}

// Reconcile restores the alignment invariant 0 <= feedPages - ads <= 1 by
// fetching one ad at a time while the ad collection is behind. It is meant
// to run after every feed page append and is safe to call repeatedly; a
// concurrent call returns immediately while another is fetching.
func (il *Interleaver) Reconcile(ctx context.Context) error {
	if !il.Enabled() {
		return nil
	}

	il.mu.Lock()
	if il.fetching {
		il.mu.Unlock()
		return nil
	}
	il.fetching = true
	il.mu.Unlock()

	defer func() {
		il.mu.Lock()
		il.fetching = false
		il.mu.Unlock()
	}()

	for {
		col, _ := il.store.Read(il.feedKey)

		il.mu.Lock()
		behind := len(col.Pages) - len(il.ads.Ads)
		hasPrevious := len(il.ads.Ads) > 0
		il.mu.Unlock()

		if behind <= 0 {
			return nil
		}

		ad, err := il.gw.FetchAd(ctx, hasPrevious)
		if err != nil {
			il.log.Debug("ad fetch failed", "key", il.feedKey.String(), "error", err)
			return err
		}

		il.mu.Lock()
		ads := make([]feed.Ad, len(il.ads.Ads)+1)
		copy(ads, il.ads.Ads)
		ads[len(il.ads.Ads)] = ad
		il.ads.Ads = ads
		il.ads.Revision++
		il.mu.Unlock()
	}
}
