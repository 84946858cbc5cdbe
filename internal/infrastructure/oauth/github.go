package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-github/github"
	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/config"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// GitHubProvider implements domain.OAuthProvider for GitHub accounts
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase *url.URL
}

// NewGitHubProvider creates a GitHub provider against the public endpoints
func NewGitHubProvider(c config.OAuthClientConfig) *GitHubProvider {
	return &GitHubProvider{config: githubConfig(c, githuboauth.Endpoint)}
}

// NewGitHubProviderWithEndpoints creates a GitHub provider with a custom token endpoint and API base.
// apiBase must end with a slash.
func NewGitHubProviderWithEndpoints(c config.OAuthClientConfig, endpoint oauth2.Endpoint, apiBase string) (*GitHubProvider, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return nil, err
	}
	return &GitHubProvider{config: githubConfig(c, endpoint), apiBase: u}, nil
}

func githubConfig(c config.OAuthClientConfig, endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       []string{"read:user", "user:email"},
	}
}

// Name implements domain.OAuthProvider
func (g *GitHubProvider) Name() domain.Provider { return domain.ProviderGitHub }

// AuthCodeURL implements domain.OAuthProvider
func (g *GitHubProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange implements domain.OAuthProvider
func (g *GitHubProvider) Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github: code exchange failed: %w", err)
	}

	client := github.NewClient(g.config.Client(ctx, token))
	if g.apiBase != nil {
		client.BaseURL = g.apiBase
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("github: fetch user: %w", err)
	}

	profile := &domain.OAuthProfile{
		Provider:   domain.ProviderGitHub,
		ProviderID: strconv.FormatInt(user.GetID(), 10),
		Name:       user.GetName(),
		AvatarURL:  user.GetAvatarURL(),
	}
	if profile.Name == "" {
		profile.Name = user.GetLogin()
	}

	// GitHub only allows verified addresses to be public
	if email := user.GetEmail(); email != "" {
		profile.Email = email
		profile.EmailVerified = true
		return profile, nil
	}

	emails, _, err := client.Users.ListEmails(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("github: list emails: %w", err)
	}
	profile.Email, profile.EmailVerified = pickEmail(emails)
	return profile, nil
}

// pickEmail prefers the primary verified address, then any verified one
func pickEmail(emails []*github.UserEmail) (string, bool) {
	for _, e := range emails {
		if e.GetPrimary() && e.GetVerified() {
			return e.GetEmail(), true
		}
	}
	for _, e := range emails {
		if e.GetVerified() {
			return e.GetEmail(), true
		}
	}
	return "", false
}

var _ domain.OAuthProvider = (*GitHubProvider)(nil)
