package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName carries the session token
const SessionCookieName = "token"

// CookieConfig controls the session cookie attributes
type CookieConfig struct {
	Secure bool
	Domain string
}

func setSessionCookie(c *gin.Context, cfg CookieConfig, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(ttl.Seconds()), "/", cfg.Domain, cfg.Secure, true)
}

func clearSessionCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", cfg.Domain, cfg.Secure, true)
}
