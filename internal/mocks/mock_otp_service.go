package mocks

import (
	"time"

	"github.com/you/marketauth/domain"
)

// MockOTPService implements domain.OTPService interface for testing
type MockOTPService struct {
	IssueFunc  func(purpose domain.OTPPurpose) (*domain.IssuedOTP, error)
	VerifyFunc func(state *domain.OTPState, code string) error
}

// NewMockOTPService creates a new MockOTPService with default behaviors
func NewMockOTPService() *MockOTPService {
	return &MockOTPService{}
}

// Issue generates a new OTP
func (m *MockOTPService) Issue(purpose domain.OTPPurpose) (*domain.IssuedOTP, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(purpose)
	}
	// Default behavior: a fixed code whose "hash" is the code itself
	return &domain.IssuedOTP{
		Code:      "123456",
		Hash:      "123456",
		ExpiresAt: time.Now().Add(10 * time.Minute),
		Purpose:   purpose,
	}, nil
}

// Verify checks a code against stored state
func (m *MockOTPService) Verify(state *domain.OTPState, code string) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(state, code)
	}
	// Default behavior: accept the stored "hash" as the code
	if state == nil {
		return domain.ErrOTPNotFound
	}
	if state.CodeHash != code {
		return domain.ErrOTPInvalid
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.OTPService = (*MockOTPService)(nil)
