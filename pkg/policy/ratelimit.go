package policy

import (
	"sync"
	"time"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
)

// rateLimiter implements §5.7 point 3: a sliding window of width `window`
// permitting at most `limit` invocations, with an optional per-1s burst
// sub-window cap. A non-positive limit disables the check.
type rateLimiter struct {
	mu sync.Mutex

	limit  int
	window time.Duration
	burst  int

	stamps []time.Time // admission times still inside the window, oldest first

	burstStart time.Time
	burstCount int
}

func newRateLimiter(limit int, window time.Duration, burst int) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, burst: burst}
}

func (r *rateLimiter) allow() error {
	if r.limit <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	for len(r.stamps) > 0 && !r.stamps[0].After(now.Add(-r.window)) {
		r.stamps = r.stamps[1:]
	}
	if r.burst > 0 && (r.burstStart.IsZero() || now.Sub(r.burstStart) >= time.Second) {
		r.burstStart = now
		r.burstCount = 0
	}

	if len(r.stamps) >= r.limit {
		return &bridgeerr.PolicyError{Kind: bridgeerr.RateLimited, Detail: "window"}
	}
	if r.burst > 0 && r.burstCount >= r.burst {
		return &bridgeerr.PolicyError{Kind: bridgeerr.RateLimited, Detail: "burst"}
	}

	r.stamps = append(r.stamps, now)
	if r.burst > 0 {
		r.burstCount++
	}
	return nil
}
