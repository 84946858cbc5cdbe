package mocks

import (
	"fmt"
	"time"

	"github.com/you/marketauth/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueFunc  func(subject domain.TokenSubject, ttl time.Duration) (string, error)
	VerifyFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// Issue generates a token for the subject
func (m *MockTokenService) Issue(subject domain.TokenSubject, ttl time.Duration) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(subject, ttl)
	}
	// Default behavior: return a mock token
	return fmt.Sprintf("token_user_%d_%s", subject.UserID, subject.Role), nil
}

// Verify validates a token and returns claims
func (m *MockTokenService) Verify(token string) (*domain.TokenClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token)
	}
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	now := time.Now().Unix()
	return &domain.TokenClaims{
		UserID:    1,
		Role:      domain.RoleUser,
		IssuedAt:  now,
		ExpiresAt: now + 86400,
	}, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
