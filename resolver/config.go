package resolver

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Config holds resolver configuration.
//
// Events, when set, receives one ProbeEvent per probe. Sends block, so the
// caller must keep draining the channel for as long as Resolve runs; an
// undrained channel stalls resolution until ctx ends.
type Config struct {
	ProbeTimeout time.Duration     // Bound on one candidate's full redirect chain (default 15s)
	MaxRedirects int               // Redirect hops followed per probe (default 10)
	MaxBodyBytes int64             // Largest response body read (default 5 MiB)
	UserAgent    string            // User-Agent header for every request
	DiscoverRSD  bool              // Fall back to RSD discovery when static candidates fail
	Logger       hclog.Logger      // Defaults to a null logger
	Events       chan<- ProbeEvent // Optional; must be drained
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ProbeTimeout: 15 * time.Second,
		MaxRedirects: 10,
		MaxBodyBytes: 5 << 20,
		UserAgent:    "xmlrpcfind/1.0 (+https://github.com/lukemcguire/xmlrpcfind)",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = def.ProbeTimeout
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = def.MaxRedirects
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	return c
}
