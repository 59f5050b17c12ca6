package ports

import "context"

// CacheReader is a best-effort view of the shared cache. Implementations
// never return errors: every cache-layer failure is reported as a miss.
type CacheReader interface {
	// ReadJSON decodes the JSON value stored under key into out and reports
	// whether it did.
	ReadJSON(ctx context.Context, key string, out any) bool
	// ReadHash returns the fields of the hash stored under key.
	ReadHash(ctx context.Context, key string) (map[string]string, bool)
}

// CacheObserver records lookup outcomes ("hit", "miss", "error").
type CacheObserver interface {
	ObserveCacheLookup(ctx context.Context, kind, outcome string)
}
