package contracts

import (
	"context"
	"time"
)

// Cache is the invalidate-on-write key/value store fronting board
// reads. Misses return ("", false, nil); errors are reserved for
// transport failures.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// InvalidatePrefix removes every key under the prefix. Used to
	// drop all cached reads of a project after a mutation.
	InvalidatePrefix(ctx context.Context, prefix string) error
}
