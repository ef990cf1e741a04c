// Package metadata stores small key/value records in the local state
// database, such as the persisted session token.
package metadata

import (
	"context"
)

// Repository is a key/value store. Get returns (nil, nil) for missing keys.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
