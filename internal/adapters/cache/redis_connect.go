package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectOptions tunes the client for read-only cache-aside use.
type ConnectOptions struct {
	ReadTimeout time.Duration
}

// Connect initializes a Redis client from URL or host:port input.
// No connection is made until the first command.
func Connect(_ context.Context, redisURL string, opts ConnectOptions) (*redis.Client, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is empty")
	}

	var opt *redis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: redisURL}
	}

	// A read must finish inside its deadline, so go-redis never retries.
	opt.MaxRetries = -1
	if opts.ReadTimeout > 0 {
		opt.DialTimeout = opts.ReadTimeout
		opt.ReadTimeout = opts.ReadTimeout
		opt.WriteTimeout = opts.ReadTimeout
		opt.PoolTimeout = opts.ReadTimeout
	}
	return redis.NewClient(opt), nil
}
