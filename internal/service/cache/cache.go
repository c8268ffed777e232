package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. Insight
// summaries are cached through it, keyed by a digest of their inputs.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
