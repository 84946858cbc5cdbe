package mocks

import (
	"context"

	"github.com/you/marketauth/domain"
)

// MockTempUserRepository implements domain.TempUserRepository interface for testing
type MockTempUserRepository struct {
	UpsertFunc      func(ctx context.Context, user *domain.TempUser) error
	FindByEmailFunc func(ctx context.Context, email string) (*domain.TempUser, error)
	DeleteFunc      func(ctx context.Context, email string) error
}

// NewMockTempUserRepository creates a new MockTempUserRepository with default behaviors
func NewMockTempUserRepository() *MockTempUserRepository {
	return &MockTempUserRepository{}
}

// Upsert stores a pending signup
func (m *MockTempUserRepository) Upsert(ctx context.Context, user *domain.TempUser) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, user)
	}
	return nil
}

// FindByEmail finds a pending signup
func (m *MockTempUserRepository) FindByEmail(ctx context.Context, email string) (*domain.TempUser, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: nothing pending
	return nil, domain.ErrNoPendingSignup
}

// Delete removes a pending signup
func (m *MockTempUserRepository) Delete(ctx context.Context, email string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, email)
	}
	return nil
}

var _ domain.TempUserRepository = (*MockTempUserRepository)(nil)
