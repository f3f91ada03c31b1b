package batch

import (
	"net/http"
	"time"

	"github.com/lukemcguire/xmlrpcfind/resolver"
)

// Config holds batch configuration.
type Config struct {
	Sites       []string        // Site addresses as typed by the user, resolved in this order
	Concurrency int             // Sites resolved in parallel (default 4)
	RateLimit   int             // Initial requests per second across all sites (default 10)
	TargetRTT   time.Duration   // Round-trip time the throttle aims for (default 500ms)
	FixedRate   bool            // Keep RateLimit fixed instead of adapting to RTT
	Client      *http.Client    // Base client; nil means a pooled go-cleanhttp client
	Resolver    resolver.Config // Per-site resolution settings; Events is managed by the runner
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(sites ...string) Config {
	return Config{
		Sites:       sites,
		Concurrency: 4,
		RateLimit:   10,
		TargetRTT:   500 * time.Millisecond,
		Resolver:    resolver.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.RateLimit <= 0 {
		c.RateLimit = def.RateLimit
	}
	if c.TargetRTT <= 0 {
		c.TargetRTT = def.TargetRTT
	}
	return c
}
