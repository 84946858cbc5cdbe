package mocks

import (
	"context"

	"github.com/you/marketauth/domain"
)

// MockRoleService implements domain.RoleService interface for testing
type MockRoleService struct {
	ChangeRoleFunc func(ctx context.Context, in domain.ChangeRoleInput) (*domain.RoleChangeResult, error)
	GetProfileFunc   func(ctx context.Context, userID uint) (*domain.RoleProfile, error)
	ListArchivesFunc func(ctx context.Context, userID uint) ([]*domain.ProfileArchive, error)
}

// NewMockRoleService creates a new MockRoleService with default behaviors
func NewMockRoleService() *MockRoleService {
	return &MockRoleService{}
}

// ChangeRole performs a role transition
func (m *MockRoleService) ChangeRole(ctx context.Context, in domain.ChangeRoleInput) (*domain.RoleChangeResult, error) {
	if m.ChangeRoleFunc != nil {
		return m.ChangeRoleFunc(ctx, in)
	}
	return &domain.RoleChangeResult{
		Message: "Role updated successfully",
		NewRole: in.NewRole,
		Changed: true,
	}, nil
}

// GetProfile returns the active role profile
func (m *MockRoleService) GetProfile(ctx context.Context, userID uint) (*domain.RoleProfile, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	return nil, domain.ErrProfileNotFound
}

// ListArchives returns archived profiles
func (m *MockRoleService) ListArchives(ctx context.Context, userID uint) ([]*domain.ProfileArchive, error) {
	if m.ListArchivesFunc != nil {
		return m.ListArchivesFunc(ctx, userID)
	}
	return []*domain.ProfileArchive{}, nil
}

var _ domain.RoleService = (*MockRoleService)(nil)
