package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// OAuthHandlers drives social login redirects
type OAuthHandlers struct {
	oauthSvc    domain.OAuthService
	cookie      CookieConfig
	frontendURL string
	log         logrus.FieldLogger
}

// NewOAuthHandlers creates OAuth handlers that land the browser on frontendURL
func NewOAuthHandlers(oauthSvc domain.OAuthService, cookie CookieConfig, frontendURL string, log logrus.FieldLogger) *OAuthHandlers {
	return &OAuthHandlers{
		oauthSvc:    oauthSvc,
		cookie:      cookie,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         orStandard(log),
	}
}

// Start redirects to the provider consent page
func (h *OAuthHandlers) Start(provider domain.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, err := h.oauthSvc.AuthURL(c.Request.Context(), provider)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Redirect(http.StatusFound, url)
	}
}

// Callback finishes the provider redirect, sets the session cookie and returns to the frontend
func (h *OAuthHandlers) Callback(provider domain.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if e := c.Query("error"); e != "" {
			h.log.WithFields(logrus.Fields{"provider": provider, "error": e}).Info("oauth consent declined")
			c.Redirect(http.StatusFound, h.failureURL())
			return
		}

		result, err := h.oauthSvc.Callback(c.Request.Context(), provider, c.Query("code"), c.Query("state"))
		if err != nil {
			h.log.WithError(err).WithField("provider", provider).Warn("oauth callback failed")
			c.Redirect(http.StatusFound, h.failureURL())
			return
		}

		setSessionCookie(c, h.cookie, result.Token, result.ExpiresIn)
		c.Redirect(http.StatusFound, h.frontendURL+"/")
	}
}

func (h *OAuthHandlers) failureURL() string {
	return h.frontendURL + "/login?error=oauth_failed"
}
