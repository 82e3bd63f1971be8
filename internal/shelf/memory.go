package shelf

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an ephemeral, thread-safe Store backed by sync.Map.
type Memory struct {
	entries sync.Map // Key: shelf key, Value: Entry
}

// NewMemory creates an empty in-memory shelf.
func NewMemory() *Memory {
	return &Memory{}
}

// Put stores or replaces the entry for key.
func (m *Memory) Put(ctx context.Context, key, class, payload string) error {
	m.entries.Store(key, Entry{Key: key, Class: class, Payload: payload})
	return nil
}

// Get returns the payload stored under key.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	e, err := m.Entry(ctx, key)
	return e.Payload, err
}

// Entry returns the full entry stored under key.
func (m *Memory) Entry(ctx context.Context, key string) (Entry, error) {
	v, ok := m.entries.Load(key)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return v.(Entry), nil
}

// Keys lists the stored keys in sorted order.
func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	m.entries.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
