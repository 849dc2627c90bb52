// Package synth turns provider calls into durable audio files.
package synth

import (
	"context"
	"math"
	"math/rand"
	"time"

	"storyvoice/pkg/config"
)

// Policy is the retry schedule for one synthesis.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter adds up to this fraction of the delay at random.
	Jitter float64

	rand func() float64
}

// PolicyFromConfig builds the policy from the synthesis settings.
func PolicyFromConfig(cfg config.SynthesisConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.Backoff.BaseDelay.D(),
		MaxDelay:    cfg.Backoff.MaxDelay.D(),
		Jitter:      cfg.Backoff.Jitter,
	}
}

// Delay returns the wait after the given number of failed attempts.
func (p Policy) Delay(failures int) time.Duration {
	if failures < 1 || p.BaseDelay <= 0 {
		return 0
	}

	// Exponential: baseDelay * 2^(failures-1)
	multiplier := math.Pow(2, float64(failures-1))
	delay := time.Duration(float64(p.BaseDelay) * multiplier)

	// Cap at maxDelay
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter > 0 {
		r := rand.Float64
		if p.rand != nil {
			r = p.rand
		}
		delay += time.Duration(r() * p.Jitter * float64(delay))
	}
	return delay
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
