package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/policy"
)

// GetPolicy handles GET /api/policy.
func (h *Handler) GetPolicy(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	p, err := h.policies.Get(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PutPolicy handles PUT /api/policy.
func (h *Handler) PutPolicy(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in policy.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, apperr.Validation("invalid request body"))
		return
	}

	p, err := h.policies.Put(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
