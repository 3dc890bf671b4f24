package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set or was removed.
var ErrNotFound = errors.New("storage: key not found")

// ErrInvalidKey is returned for keys a driver cannot store verbatim.
var ErrInvalidKey = errors.New("storage: invalid key")

// KV is a string blob store addressed by key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error // absent key is not an error
}

var errEmptyKey = errors.New("empty key")
