package mocks

import (
	"context"

	"github.com/you/marketauth/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	SignupFunc           func(ctx context.Context, in domain.SignupInput) (*domain.OTPDispatch, error)
	VerifySignupOTPFunc  func(ctx context.Context, email, code string) (*domain.AuthResult, error)
	LoginFunc            func(ctx context.Context, email, password string, rememberMe bool) (*domain.LoginResult, error)
	ForgotPasswordFunc   func(ctx context.Context, email string) (*domain.OTPDispatch, error)
	ResetPasswordFunc    func(ctx context.Context, email, code, newPassword string) (string, error)
	ResendOTPFunc        func(ctx context.Context, email string, otpType domain.OTPType) (*domain.OTPDispatch, error)
	GetUserFromTokenFunc func(ctx context.Context, token string) (*domain.User, error)
	LoginOAuthFunc       func(ctx context.Context, profile domain.OAuthProfile) (*domain.AuthResult, error)
	EnsureAdminFunc      func(ctx context.Context, email, password string) (bool, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Signup stages a pending signup
func (m *MockAuthService) Signup(ctx context.Context, in domain.SignupInput) (*domain.OTPDispatch, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, in)
	}
	return &domain.OTPDispatch{Email: in.Email}, nil
}

// VerifySignupOTP promotes a pending signup
func (m *MockAuthService) VerifySignupOTP(ctx context.Context, email, code string) (*domain.AuthResult, error) {
	if m.VerifySignupOTPFunc != nil {
		return m.VerifySignupOTPFunc(ctx, email, code)
	}
	return &domain.AuthResult{
		Token: "mock_token",
		User:  domain.PublicUser{ID: 1, Email: email, Role: domain.RoleUser, IsVerified: true},
	}, nil
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, rememberMe)
	}
	return &domain.LoginResult{
		Status: domain.LoginAuthenticated,
		Auth: &domain.AuthResult{
			Token: "mock_token",
			User:  domain.PublicUser{ID: 1, Email: email, Role: domain.RoleUser, IsVerified: true},
		},
	}, nil
}

// ForgotPassword issues a reset code
func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) (*domain.OTPDispatch, error) {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return &domain.OTPDispatch{Email: email}, nil
}

// ResetPassword replaces a password using a reset code
func (m *MockAuthService) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, code, newPassword)
	}
	return "Password reset successfully", nil
}

// ResendOTP issues a fresh code
func (m *MockAuthService) ResendOTP(ctx context.Context, email string, otpType domain.OTPType) (*domain.OTPDispatch, error) {
	if m.ResendOTPFunc != nil {
		return m.ResendOTPFunc(ctx, email, otpType)
	}
	return &domain.OTPDispatch{Email: email}, nil
}

// GetUserFromToken resolves the user behind a token
func (m *MockAuthService) GetUserFromToken(ctx context.Context, token string) (*domain.User, error) {
	if m.GetUserFromTokenFunc != nil {
		return m.GetUserFromTokenFunc(ctx, token)
	}
	return nil, domain.ErrTokenInvalid
}

// LoginOAuth finds or creates a social login user
func (m *MockAuthService) LoginOAuth(ctx context.Context, profile domain.OAuthProfile) (*domain.AuthResult, error) {
	if m.LoginOAuthFunc != nil {
		return m.LoginOAuthFunc(ctx, profile)
	}
	return &domain.AuthResult{
		Token: "mock_token",
		User:  domain.PublicUser{ID: 1, Email: profile.Email, Role: domain.RoleUser, Provider: profile.Provider, IsVerified: true},
	}, nil
}

// EnsureAdmin provisions the bootstrap admin
func (m *MockAuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if m.EnsureAdminFunc != nil {
		return m.EnsureAdminFunc(ctx, email, password)
	}
	return false, nil
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
