package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryKeyEqual(t *testing.T) {
	a := NewQueryKey("feed", "popular", "period:7d")
	b := NewQueryKey("feed", "popular", "period:7d")
	c := NewQueryKey("feed", "popular")
	d := NewQueryKey("feed", "recent", "period:7d")

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.True(t, QueryKey(nil).Equal(QueryKey{}))
}

func TestQueryKeyHasPrefix(t *testing.T) {
	key := NewQueryKey("feed", "popular", "period:7d")

	assert.True(t, key.HasPrefix(nil))
	assert.True(t, key.HasPrefix(NewQueryKey("feed")))
	assert.True(t, key.HasPrefix(NewQueryKey("feed", "popular")))
	assert.True(t, key.HasPrefix(key))
	assert.False(t, key.HasPrefix(NewQueryKey("feed", "recent")))
	assert.False(t, key.HasPrefix(NewQueryKey("feed", "popular", "period:7d", "extra")))
}

func TestQueryKeyString(t *testing.T) {
	assert.Equal(t, "feed/popular", NewQueryKey("feed", "popular").String())
	assert.Equal(t, "", QueryKey(nil).String())
}
