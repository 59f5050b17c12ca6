package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viralforge/dashboard-bff/internal/ports"
)

const (
	DefaultReadTimeout = 500 * time.Millisecond

	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupError = "error"

	kindJSON = "json"
	kindHash = "hash"
)

// Reader is the Redis-backed cache-aside reader. Every failure is logged and
// reported to the caller as a miss.
type Reader struct {
	handle      *Handle
	readTimeout time.Duration
	observer    ports.CacheObserver
}

var _ ports.CacheReader = (*Reader)(nil)

func NewReader(handle *Handle, readTimeout time.Duration, observer ports.CacheObserver) *Reader {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Reader{handle: handle, readTimeout: readTimeout, observer: observer}
}

func (r *Reader) ReadJSON(ctx context.Context, key string, out any) bool {
	client, ok := r.client(ctx, kindJSON, key)
	if !ok {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.observe(ctx, kindJSON, lookupMiss)
		return false
	}
	if err != nil {
		r.fail(ctx, kindJSON, key, "cache read failed", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.fail(ctx, kindJSON, key, "cached value is not valid json", err)
		return false
	}
	r.observe(ctx, kindJSON, lookupHit)
	return true
}

// ReadHash treats an empty hash as absent; Redis does not distinguish the two.
func (r *Reader) ReadHash(ctx context.Context, key string) (map[string]string, bool) {
	client, ok := r.client(ctx, kindHash, key)
	if !ok {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	fields, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		r.fail(ctx, kindHash, key, "cache hash read failed", err)
		return nil, false
	}
	if len(fields) == 0 {
		r.observe(ctx, kindHash, lookupMiss)
		return nil, false
	}
	r.observe(ctx, kindHash, lookupHit)
	return fields, true
}

func (r *Reader) client(ctx context.Context, kind, key string) (*redis.Client, bool) {
	if r == nil || r.handle == nil {
		return nil, false
	}
	client, err := r.handle.Client(ctx)
	if err != nil || client == nil {
		r.fail(ctx, kind, key, "cache client unavailable", err)
		return nil, false
	}
	return client, true
}

func (r *Reader) fail(ctx context.Context, kind, key, msg string, err error) {
	fields := []any{
		"operation", "cache_read",
		"kind", kind,
		"key", key,
		"outcome", "failure",
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	cacheLogger().WarnContext(ctx, msg, fields...)
	r.observe(ctx, kind, lookupError)
}

func (r *Reader) observe(ctx context.Context, kind, outcome string) {
	if r.observer != nil {
		r.observer.ObserveCacheLookup(ctx, kind, outcome)
	}
}

// Disabled is used when caching is switched off; every lookup is a miss.
type Disabled struct{}

var _ ports.CacheReader = Disabled{}

func (Disabled) ReadJSON(context.Context, string, any) bool { return false }

func (Disabled) ReadHash(context.Context, string) (map[string]string, bool) { return nil, false }
