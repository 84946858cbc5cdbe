package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/you/marketauth/domain"
)

// DefaultOAuthStateTTL bounds the consent round trip
const DefaultOAuthStateTTL = 10 * time.Minute

// OAuthServiceImpl implements domain.OAuthService
type OAuthServiceImpl struct {
	providers map[domain.Provider]domain.OAuthProvider
	states    domain.OAuthStateStore
	authSvc   domain.AuthService
	stateTTL  time.Duration
}

// NewOAuthService creates a new OAuth service over the configured providers
func NewOAuthService(states domain.OAuthStateStore, authSvc domain.AuthService, stateTTL time.Duration, providers ...domain.OAuthProvider) *OAuthServiceImpl {
	if stateTTL <= 0 {
		stateTTL = DefaultOAuthStateTTL
	}
	byName := make(map[domain.Provider]domain.OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &OAuthServiceImpl{
		providers: byName,
		states:    states,
		authSvc:   authSvc,
		stateTTL:  stateTTL,
	}
}

var _ domain.OAuthService = (*OAuthServiceImpl)(nil)

// AuthURL implements domain.OAuthService
func (s *OAuthServiceImpl) AuthURL(ctx context.Context, provider domain.Provider) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", domain.ErrOAuthProviderUnknown
	}

	state := uuid.NewString()
	if err := s.states.Save(ctx, state, provider, s.stateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return p.AuthCodeURL(state), nil
}

// Callback implements domain.OAuthService. The state is consumed before the code is exchanged.
func (s *OAuthServiceImpl) Callback(ctx context.Context, provider domain.Provider, code, state string) (*domain.AuthResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, domain.ErrOAuthProviderUnknown
	}

	issuedFor, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if issuedFor != provider {
		return nil, domain.ErrOAuthStateInvalid
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", domain.ErrValidation)
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s exchange failed: %w", provider, err)
	}
	return s.authSvc.LoginOAuth(ctx, *profile)
}

// Providers lists the enabled provider names
func (s *OAuthServiceImpl) Providers() []domain.Provider {
	out := make([]domain.Provider, 0, len(s.providers))
	for name := range s.providers {
		out = append(out, name)
	}
	return out
}
