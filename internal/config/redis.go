package config

// Redis backs rate limiting, the seat-map cache and idempotent booking
// replay.  None of them are required for correctness: when the server is
// unreachable at startup the constructor returns nil and each feature
// switches itself off.

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment.  REDIS_URL, a
// full redis:// or rediss:// URL, wins over everything else.  Otherwise the
// address comes from REDIS_HOST and REDIS_PORT or REDIS_ADDR, together with
// REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func RedisOptions() (*redis.Options, error) {
	if raw := envStr("REDIS_URL", ""); raw != "" {
		return redis.ParseURL(raw)
	}
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	}
	if t := envStr("REDIS_TLS", ""); strings.EqualFold(t, "true") || t == "1" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// NewRedisClient returns a connected client or nil when Redis is not
// configured correctly or does not answer a ping within two seconds.
func NewRedisClient() *redis.Client {
	opts, err := RedisOptions()
	if err != nil {
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
