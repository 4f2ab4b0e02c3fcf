package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/export"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/parse"
)

type clockInRequest struct {
	ProjectID *string `json:"project_id"`
}

// ActiveShiftResponse is the body of GET /api/shifts/active. Shift is null
// when the worker is clocked out.
type ActiveShiftResponse struct {
	Shift *model.Shift `json:"shift"`
}

// ClockIn handles POST /api/shifts. The body is optional.
func (h *Handler) ClockIn(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req clockInRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, apperr.Validation("invalid request body"))
		return
	}
	projectID, err := parse.OptionalID("project_id", req.ProjectID)
	if err != nil {
		h.fail(c, err)
		return
	}

	rec, err := h.shifts.ClockIn(c.Request.Context(), actor.WorkerID, actor.CompanyID, projectID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ActiveShift handles GET /api/shifts/active.
func (h *Handler) ActiveShift(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	rec, err := h.shifts.Current(c.Request.Context(), actor.WorkerID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		c.JSON(http.StatusOK, ActiveShiftResponse{})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ActiveShiftResponse{Shift: rec})
}

// StartBreak handles POST /api/shifts/:id/breaks/start.
func (h *Handler) StartBreak(c *gin.Context) {
	h.shiftAction(c, h.shifts.StartBreak)
}

// EndBreak handles POST /api/shifts/:id/breaks/end.
func (h *Handler) EndBreak(c *gin.Context) {
	h.shiftAction(c, h.shifts.EndBreak)
}

// ClockOut handles POST /api/shifts/:id/clock-out.
func (h *Handler) ClockOut(c *gin.Context) {
	h.shiftAction(c, h.shifts.ClockOut)
}

func (h *Handler) shiftAction(c *gin.Context, action func(ctx context.Context, entryID, workerID string) (*model.Shift, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	entryID, err := parse.ID("entry_id", c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	rec, err := action(c.Request.Context(), entryID, actor.WorkerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Summary handles GET /api/shifts/summary?days=7.
func (h *Handler) Summary(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	days, err := queryInt(c, "days", 7)
	if err != nil {
		h.fail(c, err)
		return
	}

	sum, err := h.shifts.Summarize(c.Request.Context(), actor.WorkerID, days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Calendar handles GET /api/shifts/calendar.ics?days=30.
func (h *Handler) Calendar(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	days, err := queryInt(c, "days", 30)
	if err != nil {
		h.fail(c, err)
		return
	}

	shifts, err := h.shifts.Recent(c.Request.Context(), actor.WorkerID, days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, export.CalendarContentType, []byte(export.Calendar(actor.WorkerID, shifts, h.shifts.Now())))
}
