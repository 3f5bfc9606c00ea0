package feed

// Edge wraps one entity together with its pagination cursor.
type Edge struct {
	Node   Entity `json:"node" cbor:"node"`
	Cursor string `json:"cursor" cbor:"cursor"`
}

// Page is one fetched page of edges plus the pagination info needed to
// request the next one.
type Page struct {
	Edges       []Edge `json:"edges" cbor:"edges"`
	EndCursor   string `json:"endCursor" cbor:"endCursor"`
	HasNextPage bool   `json:"hasNextPage" cbor:"hasNextPage"`
}

// Collection is the ordered pages cached under one query key. Edge order
// within a page and page order within the collection are append-only except
// for explicit removal.
//
// Revision is bumped by the cache store on every write so consumers can
// detect change without deep comparison.
type Collection struct {
	Pages    []Page
	Revision uint64
}

// LastCursor returns the end cursor of the last page, or "" when the
// collection is empty.
func (c Collection) LastCursor() string {
	if len(c.Pages) == 0 {
		return ""
	}
	return c.Pages[len(c.Pages)-1].EndCursor
}

// HasNextPage reports whether the last fetched page announced more data.
// An empty collection has a next page: nothing was fetched yet.
func (c Collection) HasNextPage() bool {
	if len(c.Pages) == 0 {
		return true
	}
	return c.Pages[len(c.Pages)-1].HasNextPage
}

// Len returns the total number of edges across all pages.
func (c Collection) Len() int {
	n := 0
	for i := range c.Pages {
		n += len(c.Pages[i].Edges)
	}
	return n
}

// FindByID scans pages in order for the first edge whose entity has the
// given id and returns its coordinates. Linear scan is fine at feed scale;
// page sizes are bounded.
func (c Collection) FindByID(id string) (pageIndex, itemIndex int, ok bool) {
	for pi := range c.Pages {
		for ii := range c.Pages[pi].Edges {
			if c.Pages[pi].Edges[ii].Node.ID == id {
				return pi, ii, true
			}
		}
	}
	return 0, 0, false
}

// Ad is one ad payload as returned by the ad-serving endpoint.
type Ad struct {
	ID        string `json:"id" cbor:"id"`
	Title     string `json:"title" cbor:"title"`
	ImageURL  string `json:"imageUrl" cbor:"imageUrl"`
	TargetURL string `json:"targetUrl" cbor:"targetUrl"`
	// FetchedAtUnix is when the payload was retrieved, for staleness display.
	FetchedAtUnix int64 `json:"-" cbor:"-"`
}

// AdCollection holds one ad per feed page, aligned by index: Ads[i] fills
// the slot of feed page i. Its own revision mirrors Collection.Revision.
type AdCollection struct {
	Ads      []Ad
	Revision uint64
}
