package resilience

import (
	"strings"
	"time"
)

// Dependency names are the operation prefix before the first dot.
const (
	DependencyNATS   = "nats"
	DependencyRedis  = "redis"
	DependencyOllama = "ollama"
)

type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32

	// Dependencies overrides the settings above per dependency. Zero fields
	// inherit the shared value.
	Dependencies map[string]DependencyPolicy
}

type DependencyPolicy struct {
	RetryMaxAttempts   int
	BreakerMinRequests uint32
	BreakerOpenTimeout time.Duration
}

// DefaultConfig tunes each dependency to what an assessment loses when it is
// down. Redis and Ollama only cost a cache hit or phrased notes, so they give
// up early and are probed again soon; NATS carries completed assessments and
// keeps the shared settings.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,

		Dependencies: map[string]DependencyPolicy{
			DependencyRedis: {
				RetryMaxAttempts:   1,
				BreakerMinRequests: 5,
				BreakerOpenTimeout: 5 * time.Second,
			},
			DependencyOllama: {
				RetryMaxAttempts:   2,
				BreakerMinRequests: 3,
				BreakerOpenTimeout: 60 * time.Second,
			},
		},
	}
}

// For returns the effective settings for one operation, e.g. "redis.get".
func (c Config) For(operation string) Config {
	dependency, _, _ := strings.Cut(operation, ".")
	policy, ok := c.Dependencies[dependency]
	if !ok {
		return c
	}
	out := c
	if policy.RetryMaxAttempts > 0 {
		out.RetryMaxAttempts = policy.RetryMaxAttempts
	}
	if policy.BreakerMinRequests > 0 {
		out.BreakerMinRequests = policy.BreakerMinRequests
	}
	if policy.BreakerOpenTimeout > 0 {
		out.BreakerOpenTimeout = policy.BreakerOpenTimeout
	}
	return out
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}
