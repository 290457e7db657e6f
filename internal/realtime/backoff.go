// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import "time"

const (
	// DefaultBaseDelay is multiplied by 2^attempt for each reconnect.
	DefaultBaseDelay = 1000 * time.Millisecond

	// DefaultMaxDelay caps a single reconnect delay.
	DefaultMaxDelay = 30 * time.Second

	// DefaultMaxAttempts is the number of reconnects before the manager idles.
	DefaultMaxAttempts = 5
)

// Backoff is the reconnect policy.
type Backoff struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int
}

// DefaultBackoff returns 2s, 4s, 8s, 16s, 30s over five attempts.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:        DefaultBaseDelay,
		Max:         DefaultMaxDelay,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Delay returns min(Base * 2^attempt, Max).
// The attempt counter is incremented before calling, so the first reconnect
// uses attempt 1.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := b.Base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= b.Max {
			return b.Max
		}
	}
	if delay > b.Max {
		return b.Max
	}
	return delay
}
