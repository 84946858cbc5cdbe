package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// PolicyHandlers lets admins inspect and edit casbin rules
type PolicyHandlers struct {
	policySvc domain.PolicyService
	log       logrus.FieldLogger
}

// NewPolicyHandlers creates policy handlers
func NewPolicyHandlers(policySvc domain.PolicyService, log logrus.FieldLogger) *PolicyHandlers {
	return &PolicyHandlers{policySvc: policySvc, log: orStandard(log)}
}

// PolicyRequest is one casbin rule
type PolicyRequest struct {
	Sub string `json:"sub" binding:"required"`
	Obj string `json:"obj" binding:"required"`
	Act string `json:"act" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"policies": h.policySvc.GetPolicies()})
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.policySvc.AddPolicy(r.Sub, r.Obj, r.Act); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.policySvc.RemovePolicy(r.Sub, r.Obj, r.Act); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
