// The [feedsync] package keeps a client-side content feed consistent across
// views and with the server.
//
// # Engine and views
//
// Construct one [Engine] per process. It owns the cache store, the mutation
// broadcast bus, the gateways and the realtime channel. Bind representations
// to it with [Engine.NewFeedView] (collection-backed: the feed itself, the
// reading history) and [Engine.NewItemView] (backed by the single-entity
// cache). Views subscribe to the bus on Mount and deregister on Unmount.
//
// # Optimistic mutations
//
// A user action dispatched through a view is patched into that view's cache
// synchronously, then submitted to the server. On success the mutation is
// broadcast so every other mounted view mirrors it into its own cache by
// entity id, with no network round-trip. On failure the captured rollbacks
// restore the exact pre-patch state and the configured notifier surfaces the
// error with an undo affordance.
//
// # Realtime merges
//
// Server-pushed engagement events arrive over a websocket channel (see
// [github.com/dailyfeed/feedsync.go/pkg/realtime]) and shallow-merge into
// whichever cached collection currently displays the entity, bypassing the
// dispatcher.
package feedsync
