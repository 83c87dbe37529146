// Package keylock provides mutual exclusion per key, with context-aware acquisition.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

type Map[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

func New[K comparable]() *Map[K] {
	return &Map[K]{entries: map[K]*entry{}}
}

// Lock blocks until key is free or ctx is done. On success the returned
// func releases the key and must be called exactly once.
func (m *Map[K]) Lock(ctx context.Context, key K) (func(), error) {
	e := m.acquire(key)

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			m.release(key)
		}, nil
	case <-ctx.Done():
		m.release(key)
		return nil, ctx.Err()
	}
}

func (m *Map[K]) acquire(key K) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[key]
	if e == nil {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *Map[K]) release(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// Len is the number of keys currently held or waited on.
func (m *Map[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
