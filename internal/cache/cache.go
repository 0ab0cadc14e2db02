package cache

import "context"

// KV is a flat byte store. SetAll must apply every key or none.
type KV interface {
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	SetAll(ctx context.Context, kv map[string][]byte) error
}
