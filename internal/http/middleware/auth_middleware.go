package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// Context keys set for authenticated requests
const (
	ContextUserID    = "user_id"
	ContextUserRole  = "user_role"
	ContextUserEmail = "user_email"
)

// SessionCookieName is the cookie the session token travels in
const SessionCookieName = "token"

// AuthMiddleware creates authentication middleware.
// The user is reloaded on every request so role changes apply to live sessions.
func AuthMiddleware(authSvc domain.AuthService, log logrus.FieldLogger) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		user, err := authSvc.GetUserFromToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token expired"})
			case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrUserNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			default:
				log.WithError(err).Error("session lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Token validation failed"})
			}
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, string(user.Role))
		c.Set(ContextUserEmail, user.Email)

		c.Next()
	})
}
