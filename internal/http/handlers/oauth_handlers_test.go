package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/mocks"
)

func oauthRouter(svc *mocks.MockOAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOAuthHandlers(svc, CookieConfig{}, "http://localhost:5173/", newTestLogger())
	r := gin.New()
	g := r.Group("/api/v1/auth")
	g.GET("/google", h.Start(domain.ProviderGoogle))
	g.GET("/google/callback", h.Callback(domain.ProviderGoogle))
	g.GET("/github", h.Start(domain.ProviderGitHub))
	g.GET("/github/callback", h.Callback(domain.ProviderGitHub))
	return r
}

func TestOAuthHandlers_Start(t *testing.T) {
	svc := mocks.NewMockOAuthService()
	svc.AuthURLFunc = func(ctx context.Context, provider domain.Provider) (string, error) {
		if provider == domain.ProviderGitHub {
			return "", domain.ErrOAuthProviderUnknown
		}
		return "https://accounts.example.com/consent?state=s1", nil
	}
	r := oauthRouter(svc)

	w := performRequest(r, http.MethodGet, "/api/v1/auth/google", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://accounts.example.com/consent?state=s1", w.Header().Get("Location"))

	w = performRequest(r, http.MethodGet, "/api/v1/auth/github", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthHandlers_Callback(t *testing.T) {
	tests := []struct {
		name             string
		query            string
		callbackErr      error
		expectedLocation string
		expectCookie     bool
	}{
		{
			name:             "success",
			query:            "?code=c1&state=s1",
			expectedLocation: "http://localhost:5173/",
			expectCookie:     true,
		},
		{
			name:             "bad state",
			query:            "?code=c1&state=forged",
			callbackErr:      domain.ErrOAuthStateInvalid,
			expectedLocation: "http://localhost:5173/login?error=oauth_failed",
		},
		{
			name:             "consent declined",
			query:            "?error=access_denied&state=s1",
			expectedLocation: "http://localhost:5173/login?error=oauth_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockOAuthService()
			svc.CallbackFunc = func(ctx context.Context, provider domain.Provider, code, state string) (*domain.AuthResult, error) {
				assert.Equal(t, domain.ProviderGoogle, provider)
				if tt.callbackErr != nil {
					return nil, tt.callbackErr
				}
				assert.Equal(t, "c1", code)
				assert.Equal(t, "s1", state)
				return &domain.AuthResult{Token: "oauth-jwt", ExpiresIn: 720 * time.Hour}, nil
			}
			r := oauthRouter(svc)

			w := performRequest(r, http.MethodGet, "/api/v1/auth/google/callback"+tt.query, nil)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.expectedLocation, w.Header().Get("Location"))
			cookie := sessionCookie(w)
			if tt.expectCookie {
				require.NotNil(t, cookie)
				assert.Equal(t, "oauth-jwt", cookie.Value)
			} else {
				assert.Nil(t, cookie)
			}
		})
	}
}
