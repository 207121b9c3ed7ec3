package ratelimit

import (
	"fmt"
	"time"
)

// CheckResult is the outcome of a rate limit check.
type CheckResult struct {
	Exceeded bool
	Route    string
	Current  int
	Limit    int
	Reason   string
}

// Check compares the current count against the limit.
func Check(count int, cfg Config) CheckResult {
	if !cfg.Enabled() {
		return CheckResult{}
	}
	if count >= cfg.MaxRequests {
		return CheckResult{
			Exceeded: true,
			Current:  count,
			Limit:    cfg.MaxRequests,
			Reason: fmt.Sprintf("rate limit exceeded: %d/%d requests in %s window",
				count, cfg.MaxRequests, cfg.Window),
		}
	}
	return CheckResult{}
}

// Limiter applies one Config to every client.
type Limiter struct {
	cfg     Config
	tracker *Tracker
}

// New returns a limiter. A disabled config yields a limiter that allows
// everything.
func New(cfg Config) *Limiter {
	return &Limiter{cfg: cfg, tracker: NewTracker()}
}

// Allow checks (client, route) and counts the request when it passes.
// Rejected requests are not counted.
func (l *Limiter) Allow(client, route string) CheckResult {
	if l == nil || !l.cfg.Enabled() {
		return CheckResult{}
	}
	count := l.tracker.Admit(client, route, l.cfg.Window, l.cfg.MaxRequests)
	result := Check(count, l.cfg)
	if result.Exceeded {
		result.Route = route
	}
	return result
}

// RetryAfter is the window length, the longest a rejected client waits.
func (l *Limiter) RetryAfter() time.Duration {
	if l == nil {
		return 0
	}
	return l.cfg.Window
}
