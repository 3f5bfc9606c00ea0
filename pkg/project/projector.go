// Package project composes feed pages, ad pages and synthetic items into the
// flat, render-ready item list.
package project

import (
	"sync"

	"github.com/dailyfeed/feedsync.go/pkg/feed"
)

// Config controls slot placement and loading rows.
type Config struct {
	// AdSlotIndex is the fixed item index within each page reserved for
	// the ad, marketing card or placeholder.
	AdSlotIndex int
	// PlaceholdersPerPage is how many loading rows to append while the
	// next page fetch is in flight.
	PlaceholdersPerPage int
	// MarketingCTA, when non-nil, preempts the page-0 slot.
	MarketingCTA *feed.MarketingCTA
	// ShowUserAcquisition preempts the page-0 slot when no marketing card
	// is present.
	ShowUserAcquisition bool
}

// Projector is a pure projection memoized on its inputs' revisions. It is
// recomputed on every cache patch, so unchanged inputs must yield the exact
// same slice for consumers relying on referential stability.
type Projector struct {
	cfg Config

	mu               sync.Mutex
	haveResult       bool
	lastFeedRev      uint64
	lastAdRev        uint64
	lastFetching     bool
	lastInterleaving bool
	result           []feed.Item
}

func New(cfg Config) *Projector {
	return &Projector{cfg: cfg}
}

// Project returns the flat item list for the given collections. fetching
// appends the configured number of trailing placeholders so consumers can
// render loading rows without knowing about pagination state. interleaving
// gates all slot items; it is an argument rather than config because the
// enablement predicate can flip once the first page's length is known.
func (p *Projector) Project(col feed.Collection, ads feed.AdCollection, fetching, interleaving bool) []feed.Item {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.haveResult && p.lastFeedRev == col.Revision && p.lastAdRev == ads.Revision &&
		p.lastFetching == fetching && p.lastInterleaving == interleaving {
		return p.result
	}

	items := p.compose(col, ads, fetching, interleaving)

	p.haveResult = true
	p.lastFeedRev = col.Revision
	p.lastAdRev = ads.Revision
	p.lastFetching = fetching
	p.lastInterleaving = interleaving
	p.result = items
	return items
}

func (p *Projector) compose(col feed.Collection, ads feed.AdCollection, fetching, interleaving bool) []feed.Item {
	items := make([]feed.Item, 0, col.Len()+len(col.Pages)+p.cfg.PlaceholdersPerPage)

	for pageIndex := range col.Pages {
		page := col.Pages[pageIndex]
		slot := p.cfg.AdSlotIndex
		if slot > len(page.Edges) {
			slot = len(page.Edges)
		}

		for itemIndex := range page.Edges {
			if interleaving && itemIndex == slot {
				items = append(items, p.slotItem(pageIndex, ads))
			}
			items = append(items, feed.PostItem(page.Edges[itemIndex].Node, pageIndex, itemIndex))
		}
		// Slot at or past the end of a short page still renders, keeping
		// the layout stable across pages of uneven length.
		if interleaving && slot == len(page.Edges) {
			items = append(items, p.slotItem(pageIndex, ads))
		}
	}

	if fetching {
		for range p.cfg.PlaceholdersPerPage {
			items = append(items, feed.PlaceholderItem())
		}
	}
	return items
}

// slotItem picks what fills the reserved slot of one page. Page 0 may be
// preempted by a marketing card, then an acquisition prompt, in that
// priority order. Otherwise the aligned ad renders if it arrived, and a
// placeholder holds the slot while it is pending.
func (p *Projector) slotItem(pageIndex int, ads feed.AdCollection) feed.Item {
	if pageIndex == 0 {
		if p.cfg.MarketingCTA != nil {
			return feed.MarketingItem(*p.cfg.MarketingCTA)
		}
		if p.cfg.ShowUserAcquisition {
			return feed.UserAcquisitionItem()
		}
	}
	if pageIndex < len(ads.Ads) {
		return feed.AdItem(ads.Ads[pageIndex], pageIndex)
	}
	return feed.PlaceholderItem()
}
