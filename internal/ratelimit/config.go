package ratelimit

import "time"

// Config limits how many requests one client may make per window.
// Zero values mean no limit.
type Config struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

// Enabled reports whether the config actually limits anything.
func (c Config) Enabled() bool {
	return c.MaxRequests > 0 && c.Window > 0
}
