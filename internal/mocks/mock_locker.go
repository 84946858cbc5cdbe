package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/marketauth/domain"
)

// MockLocker implements domain.Locker with an in-process map
type MockLocker struct {
	LockFunc   func(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	UnlockFunc func(ctx context.Context, key, token string) error

	mu   sync.Mutex
	held map[string]string
}

// NewMockLocker creates a new MockLocker
func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]string)}
}

// Lock acquires key if free
func (m *MockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return "", false, nil
	}
	token := key + "-token"
	m.held[key] = token
	return token, true, nil
}

// Unlock releases key when token matches
func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, key, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

// Held reports whether key is currently locked
func (m *MockLocker) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[key]
	return ok
}

var _ domain.Locker = (*MockLocker)(nil)
