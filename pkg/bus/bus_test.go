package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	kind   string
	entity string
}

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	b := New[record]()

	var order []string
	b.Subscribe(nil, func(record) { order = append(order, "first") })
	b.Subscribe(nil, func(record) { order = append(order, "second") })
	b.Subscribe(nil, func(record) { order = append(order, "third") })

	delivered := b.Publish(record{kind: "upvote"})
	assert.Equal(t, 3, delivered)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestMatcherFiltersDelivery(t *testing.T) {
	b := New[record]()

	var got []record
	b.Subscribe(
		func(r record) bool { return r.kind == "bookmark" },
		func(r record) { got = append(got, r) },
	)

	b.Publish(record{kind: "upvote", entity: "p1"})
	b.Publish(record{kind: "bookmark", entity: "p2"})

	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].entity)
}

func TestExactlyOncePerMatchingPublish(t *testing.T) {
	b := New[record]()

	count := 0
	b.Subscribe(nil, func(record) { count++ })

	b.Publish(record{})
	b.Publish(record{})
	assert.Equal(t, 2, count, "one delivery per publish, no redelivery")
}

func TestUnsubscribedHandlerNeverFires(t *testing.T) {
	b := New[record]()

	fired := false
	sub := b.Subscribe(nil, func(record) { fired = true })
	sub.Unsubscribe()

	b.Publish(record{})
	assert.False(t, fired)
	assert.Equal(t, 0, b.Len())
}

func TestUnsubscribeDuringDelivery(t *testing.T) {
	b := New[record]()

	var later *Subscription
	fired := false

	// The first handler tears down the second mid-publish; the second
	// must not fire even though it was in the snapshot.
	b.Subscribe(nil, func(record) { later.Unsubscribe() })
	later = b.Subscribe(nil, func(record) { fired = true })

	b.Publish(record{})
	assert.False(t, fired, "liveness is checked at delivery time")
}

func TestUnsubscribeIdempotent(t *testing.T) {
	b := New[record]()
	sub := b.Subscribe(nil, func(record) {})
	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, b.Len())
}

func TestLateSubscriberMissesEarlierPublish(t *testing.T) {
	b := New[record]()
	b.Publish(record{kind: "upvote"})

	fired := false
	b.Subscribe(nil, func(record) { fired = true })
	assert.False(t, fired)
}
