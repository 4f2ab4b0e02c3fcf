package model

import "time"

// ShiftStatus is the lifecycle state of a shift record.
type ShiftStatus string

const (
	StatusActive   ShiftStatus = "active"
	StatusPending  ShiftStatus = "pending"
	StatusDisputed ShiftStatus = "disputed"
	StatusVerified ShiftStatus = "verified"
)

// ReviewStatuses are the buckets a reviewer queue is split into.
var ReviewStatuses = []ShiftStatus{StatusPending, StatusDisputed, StatusVerified}

// Shift is one clock-in to clock-out session of a worker.
type Shift struct {
	ID                string      `gorm:"primaryKey;size:36" json:"id"`
	WorkerID          string      `gorm:"size:64;not null;index;index:idx_shifts_one_active,unique,where:status = 'active'" json:"worker_id"`
	CompanyID         string      `gorm:"size:64;not null;index:idx_shifts_company_status,priority:1" json:"company_id"`
	ProjectID         *string     `gorm:"size:64" json:"project_id,omitempty"`
	ClockIn           time.Time   `gorm:"not null;index" json:"clock_in"`
	ClockOut          *time.Time  `json:"clock_out,omitempty"`
	BreakStart        *time.Time  `json:"break_start,omitempty"`
	BreakEnd          *time.Time  `json:"break_end,omitempty"`
	TotalBreakMinutes int         `gorm:"not null;default:0" json:"total_break_minutes"`
	Status            ShiftStatus `gorm:"size:16;not null;index:idx_shifts_company_status,priority:2" json:"status"`
	ReviewedBy        *string     `gorm:"size:64" json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time  `json:"reviewed_at,omitempty"`
	Version           int         `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TableName pins the table name used by migrations.
func (Shift) TableName() string { return "shifts" }

// IsActive reports whether the worker is still clocked in.
func (s *Shift) IsActive() bool { return s.Status == StatusActive }

// OnBreak reports whether a break window is open.
func (s *Shift) OnBreak() bool { return s.BreakStart != nil }

// Clone returns a deep copy, so callers can mutate the copy freely.
func (s *Shift) Clone() *Shift {
	if s == nil {
		return nil
	}
	c := *s
	c.ProjectID = cloneString(s.ProjectID)
	c.ClockOut = cloneTime(s.ClockOut)
	c.BreakStart = cloneTime(s.BreakStart)
	c.BreakEnd = cloneTime(s.BreakEnd)
	c.ReviewedBy = cloneString(s.ReviewedBy)
	c.ReviewedAt = cloneTime(s.ReviewedAt)
	return &c
}

// WorkedMinutes is the shift length minus breaks. Zero while the shift is open.
func (s *Shift) WorkedMinutes() int {
	if s.ClockOut == nil {
		return 0
	}
	worked := RoundMinutes(s.ClockOut.Sub(s.ClockIn)) - s.TotalBreakMinutes
	if worked < 0 {
		return 0
	}
	return worked
}

// RoundMinutes converts d to whole minutes, rounding half up.
// Negative durations count as zero.
func RoundMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + 30*time.Second) / time.Minute)
}

// FinalizedTimesheet is the record handed to payroll once a shift is verified.
type FinalizedTimesheet struct {
	ShiftID           string    `json:"shift_id"`
	WorkerID          string    `json:"worker_id"`
	CompanyID         string    `json:"company_id"`
	ProjectID         string    `json:"project_id,omitempty"`
	ClockIn           time.Time `json:"clock_in"`
	ClockOut          time.Time `json:"clock_out"`
	TotalBreakMinutes int       `json:"total_break_minutes"`
	WorkedMinutes     int       `json:"worked_minutes"`
	VerifiedBy        string    `json:"verified_by"`
	VerifiedAt        time.Time `json:"verified_at"`
}

// Finalize builds the payroll record for a verified shift.
func (s *Shift) Finalize() (FinalizedTimesheet, bool) {
	if s.Status != StatusVerified || s.ClockOut == nil {
		return FinalizedTimesheet{}, false
	}
	ft := FinalizedTimesheet{
		ShiftID:           s.ID,
		WorkerID:          s.WorkerID,
		CompanyID:         s.CompanyID,
		ClockIn:           s.ClockIn,
		ClockOut:          *s.ClockOut,
		TotalBreakMinutes: s.TotalBreakMinutes,
		WorkedMinutes:     s.WorkedMinutes(),
	}
	if s.ProjectID != nil {
		ft.ProjectID = *s.ProjectID
	}
	if s.ReviewedBy != nil {
		ft.VerifiedBy = *s.ReviewedBy
	}
	if s.ReviewedAt != nil {
		ft.VerifiedAt = *s.ReviewedAt
	}
	return ft, true
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
