package feed

// ItemType tags the variants of the projected feed item union.
type ItemType int

const (
	ItemPost ItemType = iota
	ItemAd
	ItemMarketingCTA
	ItemPlaceholder
	ItemUserAcquisition
)

func (t ItemType) String() string {
	switch t {
	case ItemPost:
		return "post"
	case ItemAd:
		return "ad"
	case ItemMarketingCTA:
		return "marketing_cta"
	case ItemPlaceholder:
		return "placeholder"
	case ItemUserAcquisition:
		return "user_acquisition"
	default:
		return "unknown"
	}
}

// MarketingCTA is the payload of a first-page marketing card.
type MarketingCTA struct {
	Title       string
	Description string
	TargetURL   string
}

// Item is one entry of the flat, render-ready list produced by the
// projector. Only the post variant carries addressable cache coordinates;
// the synthetic variants are never targets of mutation.
type Item struct {
	Type ItemType

	// Post variant. PageIndex/ItemIndex address the entity in the cache.
	Post      *Entity
	PageIndex int
	ItemIndex int

	// Ad variant. SlotIndex is the feed page the ad was aligned with.
	Ad        *Ad
	SlotIndex int

	// MarketingCTA variant.
	CTA *MarketingCTA
}

func PostItem(e Entity, pageIndex, itemIndex int) Item {
	return Item{Type: ItemPost, Post: &e, PageIndex: pageIndex, ItemIndex: itemIndex}
}

func AdItem(ad Ad, slotIndex int) Item {
	return Item{Type: ItemAd, Ad: &ad, SlotIndex: slotIndex}
}

func MarketingItem(cta MarketingCTA) Item {
	return Item{Type: ItemMarketingCTA, CTA: &cta}
}

func PlaceholderItem() Item {
	return Item{Type: ItemPlaceholder}
}

func UserAcquisitionItem() Item {
	return Item{Type: ItemUserAcquisition}
}
