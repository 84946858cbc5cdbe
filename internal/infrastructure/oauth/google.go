package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider implements domain.OAuthProvider for Google accounts
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// NewGoogleProvider creates a Google provider against the public endpoints
func NewGoogleProvider(c config.OAuthClientConfig) *GoogleProvider {
	return NewGoogleProviderWithEndpoints(c, google.Endpoint, googleUserInfoURL)
}

// NewGoogleProviderWithEndpoints creates a Google provider with custom endpoints
func NewGoogleProviderWithEndpoints(c config.OAuthClientConfig, endpoint oauth2.Endpoint, userInfoURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userInfoURL: userInfoURL,
	}
}

// Name implements domain.OAuthProvider
func (g *GoogleProvider) Name() domain.Provider { return domain.ProviderGoogle }

// AuthCodeURL implements domain.OAuthProvider
func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange implements domain.OAuthProvider
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google: code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("google: decode userinfo: %w", err)
	}

	return &domain.OAuthProfile{
		Provider:      domain.ProviderGoogle,
		ProviderID:    info.ID,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
		AvatarURL:     info.Picture,
	}, nil
}

var _ domain.OAuthProvider = (*GoogleProvider)(nil)
