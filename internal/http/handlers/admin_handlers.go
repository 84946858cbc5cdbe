package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

const maxListLimit = 200

// AdminHandlers manages users on behalf of an admin
type AdminHandlers struct {
	userRepo domain.UserRepository
	roleSvc  domain.RoleService
	log      logrus.FieldLogger
}

// NewAdminHandlers creates admin handlers
func NewAdminHandlers(userRepo domain.UserRepository, roleSvc domain.RoleService, log logrus.FieldLogger) *AdminHandlers {
	return &AdminHandlers{userRepo: userRepo, roleSvc: roleSvc, log: orStandard(log)}
}

// ChangeRoleRequest moves a user between user and moderator
type ChangeRoleRequest struct {
	Role     string           `json:"role" binding:"required,oneof=user moderator"`
	RoleData *domain.RoleData `json:"roleData,omitempty"`
}

// ListUsers returns users, optionally filtered by ?role= and capped by ?limit=
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	filter := domain.UserFilter{Role: domain.Role(c.Query("role"))}
	if filter.Role != "" && !filter.Role.Valid() {
		respondError(c, h.log, domain.ErrInvalidRole)
		return
	}
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be a positive integer"})
			return
		}
		filter.Limit = min(n, maxListLimit)
	}

	users, err := h.userRepo.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "count": len(out)})
}

// ChangeRole runs a role transition with the caller recorded as actor
func (h *AdminHandlers) ChangeRole(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	if actor, ok := currentUserID(c); ok && actor == userID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "cannot change your own role"})
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	in := domain.ChangeRoleInput{
		UserID:   userID,
		NewRole:  domain.Role(req.Role),
		RoleData: req.RoleData,
	}
	if actor, ok := currentUserID(c); ok {
		in.ActorID = &actor
	}

	result, err := h.roleSvc.ChangeRole(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"oldRole":  result.OldRole,
		"newRole":  result.NewRole,
		"restored": result.Restored,
	})
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (h *AdminHandlers) DeleteUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	if actor, ok := currentUserID(c); ok && actor == userID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "cannot delete your own account"})
		return
	}

	if err := h.userRepo.Delete(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GetUserProfile returns the active role profile of any user
func (h *AdminHandlers) GetUserProfile(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	profile, err := h.roleSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetUserArchives lists the profiles a user left behind on earlier role changes
func (h *AdminHandlers) GetUserArchives(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	archives, err := h.roleSvc.ListArchives(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archives": archives, "count": len(archives)})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}
