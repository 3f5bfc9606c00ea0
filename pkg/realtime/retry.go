package realtime

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes reconnect delays: exponential growth capped at Max, with
// optional jitter so many clients do not reconnect in lockstep.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// MaxAttempts bounds reconnect attempts; 0 means retry forever.
	MaxAttempts int
	// JitterFactor in [0,1] spreads each delay by up to that fraction in
	// either direction. 0 disables jitter.
	JitterFactor float64
}

func DefaultBackoff() *Backoff {
	return &Backoff{
		Initial:      time.Second,
		Max:          30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}
}

// NextDelay returns the delay before retry number attempt (0-based) and
// whether to keep retrying.
func (b *Backoff) NextDelay(attempt int) (time.Duration, bool) {
	if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
		return 0, false
	}

	delay := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt))
	if delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	if b.JitterFactor > 0 {
		//nolint:gosec // jitter only, not security-critical
		delay += delay * b.JitterFactor * (2*rand.Float64() - 1)
		if delay < 0 {
			delay = float64(b.Initial)
		}
	}

	return time.Duration(delay), true
}
