package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"timekeeping-backend/internal/export"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/parse"
)

// ListTimesheets handles GET /api/review/timesheets?status=&page=&page_size=.
func (h *Handler) ListTimesheets(c *gin.Context) {
	reviewer, ok := h.actor(c)
	if !ok {
		return
	}
	status, err := parse.ReviewStatus(c.DefaultQuery("status", string(model.StatusPending)))
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		h.fail(c, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", 0)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.reviews.List(c.Request.Context(), reviewer, status, page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ReviewCounts handles GET /api/review/counts.
func (h *Handler) ReviewCounts(c *gin.Context) {
	reviewer, ok := h.actor(c)
	if !ok {
		return
	}
	counts, err := h.reviews.Counts(c.Request.Context(), reviewer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ApproveTimesheet handles POST /api/review/timesheets/:id/approve.
func (h *Handler) ApproveTimesheet(c *gin.Context) {
	h.reviewAction(c, h.reviews.Approve)
}

// DisputeTimesheet handles POST /api/review/timesheets/:id/dispute.
func (h *Handler) DisputeTimesheet(c *gin.Context) {
	h.reviewAction(c, h.reviews.Dispute)
}

func (h *Handler) reviewAction(c *gin.Context, action func(ctx context.Context, entryID string, reviewer model.Actor) (*model.Shift, error)) {
	reviewer, ok := h.actor(c)
	if !ok {
		return
	}
	entryID, err := parse.ID("entry_id", c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	rec, err := action(c.Request.Context(), entryID, reviewer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ExportTimesheets handles GET /api/review/export.xlsx?status=verified.
func (h *Handler) ExportTimesheets(c *gin.Context) {
	reviewer, ok := h.actor(c)
	if !ok {
		return
	}
	status, err := parse.ReviewStatus(c.DefaultQuery("status", string(model.StatusVerified)))
	if err != nil {
		h.fail(c, err)
		return
	}

	shifts, err := h.reviews.Collect(c.Request.Context(), reviewer, status)
	if err != nil {
		h.fail(c, err)
		return
	}
	buf, filename, err := export.Timesheets(reviewer.CompanyID, status, shifts, h.shifts.Now())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
}
