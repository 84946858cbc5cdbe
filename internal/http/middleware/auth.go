package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// AuthMW wraps the auth service for middleware
type AuthMW struct {
	authSvc domain.AuthService
	log     logrus.FieldLogger
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(authSvc domain.AuthService, log logrus.FieldLogger) *AuthMW {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthMW{authSvc: authSvc, log: log}
}

// WithCookie returns the session cookie middleware function
func (mw *AuthMW) WithCookie() gin.HandlerFunc {
	return AuthMiddleware(mw.authSvc, mw.log)
}
