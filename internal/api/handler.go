package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/auth"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/mw"
	"timekeeping-backend/internal/policy"
	"timekeeping-backend/internal/review"
	"timekeeping-backend/internal/shift"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	shifts   *shift.Service
	reviews  *review.Service
	policies *policy.Service
	logger   *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(shifts *shift.Service, reviews *review.Service, policies *policy.Service, logger *zap.Logger) *Handler {
	return &Handler{
		shifts:   shifts,
		reviews:  reviews,
		policies: policies,
		logger:   logger,
	}
}

// fail writes err as an apperr.Response. Errors without a kind are logged
// and reported as a bare 500.
func (h *Handler) fail(c *gin.Context, err error) {
	if apperr.KindOf(err) == "" {
		h.logger.Error("request failed",
			zap.String("request_id", mw.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), apperr.ToResponse(err))
}

func (h *Handler) actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		h.fail(c, apperr.Unauthenticated("not authenticated"))
	}
	return actor, ok
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(name + " must be an integer")
	}
	return v, nil
}
