// Package lock provides the key lockers that serialize stock and document
// updates ahead of the database transaction.
package lock

import (
	"context"
	"sync"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/shared"
)

// KeyedMutex is an in-process txn.Locker. Each key is a one-slot channel so
// waiters can give up when their context ends.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

var _ txn.Locker = (*KeyedMutex)(nil)

// NewKeyedMutex creates an empty locker
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

// Acquire locks keys in sorted order. On failure every key taken so far is
// released and a CONCURRENCY_CONFLICT error wrapping ctx.Err() is returned.
func (m *KeyedMutex) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = txn.SortedKeys(keys)
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := m.lock(ctx, key); err != nil {
			m.unlockAll(held)
			return nil, lockTimeout(key, err)
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(func() { m.unlockAll(held) }) }, nil
}

func (m *KeyedMutex) lock(ctx context.Context, key string) error {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.drop(key, s)
		return ctx.Err()
	}
}

func (m *KeyedMutex) unlockAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		m.mu.Lock()
		s := m.slots[keys[i]]
		m.mu.Unlock()
		<-s.ch
		m.drop(keys[i], s)
	}
}

// drop forgets the slot once nobody holds or waits on it
func (m *KeyedMutex) drop(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

// Len returns the number of keys currently held or waited on
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func lockTimeout(key string, cause error) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, "resource is busy, retry later").
		WithDetail("lock_key", key).
		WithCause(cause)
}
