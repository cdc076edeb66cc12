// Package retry provides the single retry primitive shared by discovery,
// transport, and reconnect logic.
package retry

import (
	"context"
	"time"
)

// Policy describes how often a fallible operation is re-attempted and how
// long to back off between attempts.
type Policy struct {
	MaxRetries int           // additional attempts after the first
	Backoff    time.Duration // base delay before each retry
	MaxBackoff time.Duration // cap for the exponential delay; 0 means no growth
}

// Delay returns the backoff before retry n (0-based), growing exponentially
// up to MaxBackoff. The shift is capped so large n cannot overflow.
func (p Policy) Delay(n int) time.Duration {
	if p.MaxBackoff <= 0 || p.MaxBackoff <= p.Backoff {
		return p.Backoff
	}
	if n > 30 {
		n = 30
	}
	d := p.Backoff * time.Duration(1<<uint(n))
	if d > p.MaxBackoff || d <= 0 {
		return p.MaxBackoff
	}
	return d
}

// Do runs op up to MaxRetries+1 times, sleeping Delay between attempts. It
// returns nil on the first success, the last error once attempts are
// exhausted, or the context error if ctx is done before the next attempt.
func (p Policy) Do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Delay(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = op(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
