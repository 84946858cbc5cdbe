package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// CasbinMW enforces role policies on the request path and method
type CasbinMW struct {
	policySvc domain.PolicyService
	audit     domain.AuditLogger
	log       logrus.FieldLogger
}

// NewCasbinMW creates new casbin middleware wrapper. audit may be nil.
func NewCasbinMW(policySvc domain.PolicyService, audit domain.AuditLogger, log logrus.FieldLogger) *CasbinMW {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CasbinMW{policySvc: policySvc, audit: audit, log: log}
}

// Enforce returns the casbin authorization middleware. It must run after AuthMiddleware.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		// Convert role to Casbin format (prefix with "role_")
		allowed, err := mw.policySvc.CheckPermission("role_"+role, path, method)
		if err != nil {
			mw.log.WithError(err).WithFields(logrus.Fields{"role": role, "path": path}).Error("authorization check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Authorization check failed"})
			return
		}

		if !allowed {
			mw.denied(c, role, path, method)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "unauthorized"})
			return
		}

		c.Next()
	})
}

func (mw *CasbinMW) denied(c *gin.Context, role, path, method string) {
	if mw.audit == nil {
		return
	}
	userID, _ := c.Get(ContextUserID)
	id, _ := userID.(uint)
	event := domain.NewAuditEvent(domain.AccessDeniedEvent, id).
		WithEmail(c.GetString(ContextUserEmail)).
		WithClientContext(domain.ClientFromContext(c.Request.Context())).
		WithMetadata("role", role).
		WithMetadata("path", path).
		WithMetadata("method", method)
	if err := mw.audit.LogEvent(c.Request.Context(), event); err != nil {
		mw.log.WithError(err).Debug("audit log failed")
	}
}
