package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsExponentiallyToCap(t *testing.T) {
	b := &Backoff{Initial: time.Second, Max: 8 * time.Second, Multiplier: 2.0}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second, // capped
		8 * time.Second,
	}
	for attempt, w := range want {
		d, ok := b.NextDelay(attempt)
		require.True(t, ok)
		assert.Equal(t, w, d, "attempt %d", attempt)
	}
}

func TestBackoffMaxAttempts(t *testing.T) {
	b := &Backoff{Initial: time.Second, Max: time.Minute, Multiplier: 2.0, MaxAttempts: 3}

	for attempt := 0; attempt < 3; attempt++ {
		_, ok := b.NextDelay(attempt)
		assert.True(t, ok, "attempt %d", attempt)
	}
	d, ok := b.NextDelay(3)
	assert.False(t, ok)
	assert.Zero(t, d)
}

func TestBackoffZeroMaxAttemptsRetriesForever(t *testing.T) {
	b := &Backoff{Initial: time.Second, Max: time.Minute, Multiplier: 2.0}
	_, ok := b.NextDelay(1000)
	assert.True(t, ok)
}

func TestBackoffJitterStaysInBand(t *testing.T) {
	b := DefaultBackoff()

	for attempt := 0; attempt < 10; attempt++ {
		base := float64(b.Initial) * pow(b.Multiplier, attempt)
		if base > float64(b.Max) {
			base = float64(b.Max)
		}
		lo := time.Duration(base * (1 - b.JitterFactor))
		hi := time.Duration(base * (1 + b.JitterFactor))

		for i := 0; i < 50; i++ {
			d, ok := b.NextDelay(attempt)
			require.True(t, ok)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
