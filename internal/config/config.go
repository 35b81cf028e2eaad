// Package config collects every environment-driven knob the CLI and
// review server need, using envconfig for ops-controlled tuning
// instead of flag-only configuration.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from the process environment under the REFVAL_ prefix,
// e.g. REFVAL_LISTEN, REFVAL_WORKERS.
type Config struct {
	// Listen is the host:port the review server binds to.
	Listen string `envconfig:"LISTEN" default:"localhost:8000"`

	// Workers bounds the enrichment pipeline's concurrent entry count.
	Workers int `envconfig:"WORKERS" default:"30"`

	// ContactEmail is embedded in every adapter's User-Agent header, per
	// the etiquette every source's terms of use request.
	ContactEmail string `envconfig:"CONTACT_EMAIL" default:"oncall@example.org"`

	// UserAgentProduct names this tool in the User-Agent header.
	UserAgentProduct string `envconfig:"USER_AGENT_PRODUCT" default:"reference-validator/1"`

	// JournalPath is the sqlite database the Record Store journals
	// commits to. Empty disables durable journaling.
	JournalPath string `envconfig:"JOURNAL_PATH" default:""`

	// CacheDefaultExpiration and CacheCleanupInterval tune the adapter
	// response cache.
	CacheDefaultExpiration time.Duration `envconfig:"CACHE_EXPIRATION" default:"24h"`
	CacheCleanupInterval   time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"1h"`

	// RateLimitDelay is the default per-source fixed delay; arXiv always
	// uses its own longer, serialized delay regardless of this setting.
	RateLimitDelay time.Duration `envconfig:"RATE_LIMIT_DELAY" default:"1s"`
}

// Load reads Config from the environment.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("refval", &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}
