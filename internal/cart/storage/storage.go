package storage

import (
	"context"
	"errors"
)

// Storage is a persistent key-value slot holding opaque bytes.
// Consumers define this interface, not the backing implementations.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("storage: key not found")
