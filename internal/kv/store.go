// Package kv defines the TTL-capable key-value contract backing session
// state and one-time codes, with Redis and in-memory implementations.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// Store is a shared key-value store with per-key TTLs. A ttl of zero or
// less means the key never expires.
//
// CompareAndSwap is the atomic conditional write the refresh rotation
// depends on: the new value is written only when the key currently holds
// old, and exactly one of any set of concurrent callers can win.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	CompareAndSwap(ctx context.Context, key, old, new string, ttl time.Duration) (bool, error)

	// Set-valued keys, used for per-user session indexes.
	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}
