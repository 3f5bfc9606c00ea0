package realtime

import "github.com/dailyfeed/feedsync.go/pkg/feed"

// Event is one server-pushed entity-engagement update: the entity id plus
// whatever fields changed. Absent fields stay nil and never participate in
// the merge.
type Event struct {
	ID          string  `json:"id" cbor:"id"`
	NumUpvotes  *int    `json:"numUpvotes,omitempty" cbor:"numUpvotes,omitempty"`
	NumComments *int    `json:"numComments,omitempty" cbor:"numComments,omitempty"`
	Title       *string `json:"title,omitempty" cbor:"title,omitempty"`
	Content     *string `json:"content,omitempty" cbor:"content,omitempty"`
}

// Change converts the event into the partial used for the shallow merge.
// Viewer-local fields (vote state, bookmark) are never carried by pushes and
// so can never be clobbered by one.
func (ev Event) Change() feed.Change {
	return feed.Change{
		NumUpvotes:  ev.NumUpvotes,
		NumComments: ev.NumComments,
		Title:       ev.Title,
		Content:     ev.Content,
	}
}
