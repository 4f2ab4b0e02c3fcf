package review

import (
	"time"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
)

// Approve verifies a completed shift. Pending and Disputed shifts can be
// approved; an Active shift must be clocked out first.
func Approve(rec *model.Shift, reviewerID string, now time.Time) error {
	switch rec.Status {
	case model.StatusVerified:
		return apperr.Conflict(apperr.ReasonAlreadyVerified, "timesheet is already verified")
	case model.StatusActive:
		return apperr.Conflict(apperr.ReasonShiftStillActive, "shift has not been clocked out")
	}
	mark(rec, model.StatusVerified, reviewerID, now)
	return nil
}

// Dispute flags a Pending shift for correction.
func Dispute(rec *model.Shift, reviewerID string, now time.Time) error {
	if rec.Status != model.StatusPending {
		return apperr.Conflict(apperr.ReasonNotPending, "only pending timesheets can be disputed")
	}
	mark(rec, model.StatusDisputed, reviewerID, now)
	return nil
}

func mark(rec *model.Shift, status model.ShiftStatus, reviewerID string, now time.Time) {
	rec.Status = status
	reviewer := reviewerID
	at := now
	rec.ReviewedBy = &reviewer
	rec.ReviewedAt = &at
}
