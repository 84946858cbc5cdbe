package mocks

import (
	"context"
	"time"

	"github.com/you/marketauth/domain"
)

// MockOAuthService implements domain.OAuthService interface for testing
type MockOAuthService struct {
	AuthURLFunc  func(ctx context.Context, provider domain.Provider) (string, error)
	CallbackFunc func(ctx context.Context, provider domain.Provider, code, state string) (*domain.AuthResult, error)
}

// NewMockOAuthService creates a new MockOAuthService with default behaviors
func NewMockOAuthService() *MockOAuthService {
	return &MockOAuthService{}
}

// AuthURL returns the provider consent URL
func (m *MockOAuthService) AuthURL(ctx context.Context, provider domain.Provider) (string, error) {
	if m.AuthURLFunc != nil {
		return m.AuthURLFunc(ctx, provider)
	}
	return "https://provider.example.com/auth?state=mock", nil
}

// Callback completes the redirect dance
func (m *MockOAuthService) Callback(ctx context.Context, provider domain.Provider, code, state string) (*domain.AuthResult, error) {
	if m.CallbackFunc != nil {
		return m.CallbackFunc(ctx, provider, code, state)
	}
	return nil, domain.ErrOAuthStateInvalid
}

// MockOAuthProvider implements domain.OAuthProvider interface for testing
type MockOAuthProvider struct {
	Provider     domain.Provider
	ExchangeFunc func(ctx context.Context, code string) (*domain.OAuthProfile, error)
}

// NewMockOAuthProvider creates a provider stub named p
func NewMockOAuthProvider(p domain.Provider) *MockOAuthProvider {
	return &MockOAuthProvider{Provider: p}
}

// Name returns the provider name
func (m *MockOAuthProvider) Name() domain.Provider { return m.Provider }

// AuthCodeURL builds a fake consent URL
func (m *MockOAuthProvider) AuthCodeURL(state string) string {
	return "https://" + string(m.Provider) + ".example.com/auth?state=" + state
}

// Exchange trades a code for a profile
func (m *MockOAuthProvider) Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	return &domain.OAuthProfile{
		Provider:      m.Provider,
		ProviderID:    "42",
		Email:         "social@example.com",
		EmailVerified: true,
		Name:          "Social User",
	}, nil
}

// MockOAuthStateStore implements domain.OAuthStateStore with an in-memory map
type MockOAuthStateStore struct {
	SaveFunc    func(ctx context.Context, state string, provider domain.Provider, ttl time.Duration) error
	ConsumeFunc func(ctx context.Context, state string) (domain.Provider, error)
	states      map[string]domain.Provider
}

// NewMockOAuthStateStore creates a new MockOAuthStateStore
func NewMockOAuthStateStore() *MockOAuthStateStore {
	return &MockOAuthStateStore{states: make(map[string]domain.Provider)}
}

// Save stores a state
func (m *MockOAuthStateStore) Save(ctx context.Context, state string, provider domain.Provider, ttl time.Duration) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, state, provider, ttl)
	}
	m.states[state] = provider
	return nil
}

// Consume removes and returns a state
func (m *MockOAuthStateStore) Consume(ctx context.Context, state string) (domain.Provider, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, state)
	}
	p, ok := m.states[state]
	if !ok {
		return "", domain.ErrOAuthStateInvalid
	}
	delete(m.states, state)
	return p, nil
}

// States returns the saved, unconsumed states
func (m *MockOAuthStateStore) States() []string {
	out := make([]string, 0, len(m.states))
	for s := range m.states {
		out = append(out, s)
	}
	return out
}

var (
	_ domain.OAuthService    = (*MockOAuthService)(nil)
	_ domain.OAuthProvider   = (*MockOAuthProvider)(nil)
	_ domain.OAuthStateStore = (*MockOAuthStateStore)(nil)
)
