package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// ProfileHandlers serves the caller's own role profile
type ProfileHandlers struct {
	roleSvc domain.RoleService
	log     logrus.FieldLogger
}

// NewProfileHandlers creates profile handlers
func NewProfileHandlers(roleSvc domain.RoleService, log logrus.FieldLogger) *ProfileHandlers {
	return &ProfileHandlers{roleSvc: roleSvc, log: orStandard(log)}
}

// Profile returns the caller's active profile. Admins own none.
func (h *ProfileHandlers) Profile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	profile, err := h.roleSvc.GetProfile(c.Request.Context(), userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		c.JSON(http.StatusOK, gin.H{"profile": nil})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// ModeratorDashboard returns the store the calling moderator runs, or a null store for admins
func (h *ProfileHandlers) ModeratorDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	profile, err := h.roleSvc.GetProfile(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		respondError(c, h.log, err)
		return
	}
	// admins reach the dashboard without owning a store
	if profile == nil || profile.Moderator == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the moderator dashboard", "store": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the moderator dashboard",
		"store":   profile.Moderator,
	})
}
