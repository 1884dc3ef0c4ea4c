package ratelimit

import (
	"net"
	"strconv"

	"github.com/gofiber/storage/redis"

	"github.com/lubritrack/lubritrack/internal/pkg/cache"
	"github.com/lubritrack/lubritrack/internal/pkg/env"
)

// NewStorage creates the Redis-backed storage for the API rate limiter so
// counters survive restarts and are shared across instances. Falls back to
// localhost defaults when no cache client is configured.
func NewStorage() *redis.Storage {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Database 1 keeps limiter counters out of the quota status cache (DB 0)
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
