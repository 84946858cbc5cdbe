package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// GatewayAuthzHandlers answers ext_authz style checks so other marketplace services
// can reuse the session cookie and role policies without calling the auth API directly.
type GatewayAuthzHandlers struct {
	authSvc   domain.AuthService
	policySvc domain.PolicyService
	log       logrus.FieldLogger
}

// NewGatewayAuthzHandlers creates gateway authorization handlers
func NewGatewayAuthzHandlers(authSvc domain.AuthService, policySvc domain.PolicyService, log logrus.FieldLogger) *GatewayAuthzHandlers {
	return &GatewayAuthzHandlers{authSvc: authSvc, policySvc: policySvc, log: orStandard(log)}
}

// CheckRequest describes the request the gateway wants to forward
type CheckRequest struct {
	Method  string            `json:"method" binding:"required"`
	Path    string            `json:"path" binding:"required"`
	Headers map[string]string `json:"headers"`
}

// CheckResponse tells the gateway whether to forward and which identity headers to add
type CheckResponse struct {
	Allowed bool              `json:"allowed"`
	Headers map[string]string `json:"headers,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Check authenticates the forwarded session cookie and enforces role policies on the forwarded path
func (h *GatewayAuthzHandlers) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	token := forwardedSessionToken(req.Headers)
	if token == "" {
		c.JSON(http.StatusUnauthorized, CheckResponse{Message: "Authentication required"})
		return
	}

	user, err := h.authSvc.GetUserFromToken(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, CheckResponse{Message: "Token expired"})
		case domain.KindOf(err) == domain.KindInternal:
			respondError(c, h.log, err)
		default:
			c.JSON(http.StatusUnauthorized, CheckResponse{Message: "Invalid token"})
		}
		return
	}

	path, _, _ := strings.Cut(req.Path, "?")
	allowed, err := h.policySvc.CheckPermission("role_"+string(user.Role), path, strings.ToUpper(req.Method))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, CheckResponse{Message: "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, CheckResponse{
		Allowed: true,
		Headers: map[string]string{
			"x-user-id":    strconv.FormatUint(uint64(user.ID), 10),
			"x-user-role":  string(user.Role),
			"x-user-email": user.Email,
		},
	})
}

// forwardedSessionToken extracts the session cookie from the forwarded headers.
// Header names arrive in whatever case the gateway uses.
func forwardedSessionToken(headers map[string]string) string {
	for k, v := range headers {
		if !strings.EqualFold(k, "cookie") {
			continue
		}
		r := http.Request{Header: http.Header{"Cookie": {v}}}
		if ck, err := r.Cookie(SessionCookieName); err == nil {
			return ck.Value
		}
	}
	return ""
}
