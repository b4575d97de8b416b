package config

import "time"

// CacheConfig defines settings for the seat-map response cache.  When
// Enabled is false or no Redis client is configured, listings are always
// read from MySQL.  Entries are keyed per schedule so a committed booking
// or cancellation can drop exactly the affected listing.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1048576),
	}
}

// IdempotencyConfig controls replay of POST /v1/bookings responses for
// requests carrying an Idempotency-Key header.  LockTTL bounds how long an
// in-flight request blocks duplicates; TTL is how long a finished response
// is replayed.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
	LockTTL time.Duration
	Prefix  string
}

func LoadIdempotencyConfig() IdempotencyConfig {
	cfg := IdempotencyConfig{
		Enabled: envBool("IDEMPOTENCY_ENABLED", true),
		TTL:     envDur("IDEMPOTENCY_TTL", 24*time.Hour),
		LockTTL: envDur("IDEMPOTENCY_LOCK_TTL", 30*time.Second),
		Prefix:  envStr("IDEMPOTENCY_PREFIX", "idem"),
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return cfg
}
