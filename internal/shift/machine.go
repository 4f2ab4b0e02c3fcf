// Package shift holds the shift lifecycle rules. The transition functions
// are pure so the server and the optimistic client apply the same rules.
package shift

import (
	"time"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
)

// CanClockIn checks the clock-in precondition against the worker's
// current active shift, if any.
func CanClockIn(current *model.Shift) error {
	if current != nil && current.IsActive() {
		return apperr.Conflict(apperr.ReasonAlreadyClockedIn, "worker already has an active shift")
	}
	return nil
}

// New builds an active shift starting at now.
func New(id, workerID, companyID string, projectID *string, now time.Time) *model.Shift {
	return &model.Shift{
		ID:        id,
		WorkerID:  workerID,
		CompanyID: companyID,
		ProjectID: projectID,
		ClockIn:   now,
		Status:    model.StatusActive,
		Version:   1,
	}
}

// StartBreak opens a break window at now.
func StartBreak(s *model.Shift, now time.Time) error {
	if !s.IsActive() {
		return apperr.Conflict(apperr.ReasonNoActiveShift, "shift is not active")
	}
	if s.OnBreak() {
		return apperr.Conflict(apperr.ReasonBreakAlreadyActive, "a break is already open")
	}
	start := notBefore(now, s.ClockIn)
	s.BreakStart = &start
	return nil
}

// EndBreak closes the open break window and adds its rounded length
// to the break total.
func EndBreak(s *model.Shift, now time.Time) error {
	if !s.IsActive() {
		return apperr.Conflict(apperr.ReasonNoActiveShift, "shift is not active")
	}
	if !s.OnBreak() {
		return apperr.Conflict(apperr.ReasonNoActiveBreak, "no break is open")
	}
	closeBreak(s, now)
	return nil
}

// ClockOut ends the shift and hands it to review. An open break is
// closed at now and folded into the break total.
func ClockOut(s *model.Shift, now time.Time) error {
	if !s.IsActive() {
		return apperr.Conflict(apperr.ReasonNoActiveShift, "shift is not active")
	}
	if s.OnBreak() {
		closeBreak(s, now)
	}
	out := notBefore(now, s.ClockIn)
	s.ClockOut = &out
	s.Status = model.StatusPending
	return nil
}

func closeBreak(s *model.Shift, now time.Time) {
	end := notBefore(now, *s.BreakStart)
	s.TotalBreakMinutes += model.RoundMinutes(end.Sub(*s.BreakStart))
	s.BreakStart = nil
	s.BreakEnd = &end
}

// notBefore clamps t so a skewed clock cannot produce a negative window.
func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}
