package shelf

import (
	"context"
	"errors"
)

var (
	// ErrShelfDisabled is returned by the host when no shelf is configured.
	ErrShelfDisabled = errors.New("shelf is not configured")
	// ErrNotFound is returned by Get for an unknown key.
	ErrNotFound = errors.New("shelf key not found")
)

// Entry is one stored pickle.
type Entry struct {
	Key     string
	Class   string
	Payload string
}

// Store is the method set both implementations provide.
type Store interface {
	Put(ctx context.Context, key, class, payload string) error
	Get(ctx context.Context, key string) (string, error)
	Entry(ctx context.Context, key string) (Entry, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// MemoryPath selects the in-memory store in Open.
const MemoryPath = ":memory:"

// Open returns the in-memory store for MemoryPath and a SQLite store for
// any other path.
func Open(ctx context.Context, path string) (Store, error) {
	if path == MemoryPath {
		return NewMemory(), nil
	}
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
