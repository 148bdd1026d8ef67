package stealth

import (
	"context"
	"math/rand"
	"time"
)

// RandomDelay sleeps for a random duration between min and max, honoring
// context cancellation. Used between input events so interaction timing does
// not look machine-regular.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TypingDelay returns a per-character pause that mimics human typing cadence:
// 60–180ms with an occasional longer hesitation.
func TypingDelay() time.Duration {
	base := 60 + rand.Intn(120)
	if rand.Intn(12) == 0 {
		base += 200 + rand.Intn(300)
	}
	return time.Duration(base) * time.Millisecond
}

// Jitter returns d scaled by a random factor in [0.75, 1.25).
func Jitter(d time.Duration) time.Duration {
	f := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * f)
}
