package ports

import (
	"context"
	"time"
)

// Cache is the advisory read model over the ledger. A miss returns ("",
// nil); values are JSON. The cache is never authoritative: the engine's
// ledger read backs every correctness-critical decision, and stale entries
// are bounded by TTL plus write-path invalidation.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key with the given prefix. Idempotent;
	// racing writers may leave an entry behind until its TTL or the next
	// write-path invalidation.
	DeletePattern(ctx context.Context, prefix string) error
}
