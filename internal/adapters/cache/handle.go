package cache

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Handle is the process-scoped cache client. The client is created on first
// use; concurrent first callers all observe the same client (or error).
type Handle struct {
	url  string
	opts ConnectOptions

	once   sync.Once
	mu     sync.Mutex
	client *redis.Client
	err    error
	closed bool
}

func NewHandle(redisURL string, opts ConnectOptions) *Handle {
	return &Handle{url: redisURL, opts: opts}
}

func (h *Handle) Client(ctx context.Context) (*redis.Client, error) {
	h.once.Do(func() {
		client, err := Connect(ctx, h.url, h.opts)
		h.mu.Lock()
		h.client, h.err = client, err
		h.mu.Unlock()
		if err != nil {
			cacheLogger().Warn("cache client unavailable",
				"operation", "cache_connect",
				"outcome", "failure",
				"error", err.Error(),
			)
		}
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client, h.err
}

// Ping backs the "cache" detail of /readyz. It creates the client if needed.
func (h *Handle) Ping(ctx context.Context) error {
	client, err := h.Client(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

// Close releases the client if one was ever created.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client == nil || h.closed {
		return nil
	}
	h.closed = true
	return h.client.Close()
}
