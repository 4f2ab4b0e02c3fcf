package shift

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
)

// Ledger is the storage the state machine runs against.
type Ledger interface {
	FindActive(ctx context.Context, workerID string) (*model.Shift, error)
	Create(ctx context.Context, s *model.Shift) error
	Update(ctx context.Context, id, workerID string, mutate func(*model.Shift) error) (*model.Shift, error)
	ListRecent(ctx context.Context, workerID string, since time.Time) ([]model.Shift, error)
}

// Service applies worker actions to the ledger.
type Service struct {
	ledger Ledger
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator for new shifts.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a shift service.
func NewService(ledger Ledger, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		ledger: ledger,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock in UTC at microsecond precision, which every
// supported database stores without loss.
func (s *Service) Now() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// ClockIn starts a new shift. The ledger's insert is the atomic check.
func (s *Service) ClockIn(ctx context.Context, workerID, companyID string, projectID *string) (*model.Shift, error) {
	rec := New(s.newID(), workerID, companyID, projectID, s.Now())
	if err := s.ledger.Create(ctx, rec); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			s.logger.Info("clock in rejected", zap.String("worker_id", workerID), zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("clocked in",
		zap.String("worker_id", workerID),
		zap.String("company_id", companyID),
		zap.String("shift_id", rec.ID),
	)
	return rec, nil
}

// StartBreak opens a break on the worker's shift.
func (s *Service) StartBreak(ctx context.Context, entryID, workerID string) (*model.Shift, error) {
	return s.apply(ctx, "start_break", entryID, workerID, StartBreak)
}

// EndBreak closes the open break on the worker's shift.
func (s *Service) EndBreak(ctx context.Context, entryID, workerID string) (*model.Shift, error) {
	return s.apply(ctx, "end_break", entryID, workerID, EndBreak)
}

// ClockOut ends the worker's shift.
func (s *Service) ClockOut(ctx context.Context, entryID, workerID string) (*model.Shift, error) {
	return s.apply(ctx, "clock_out", entryID, workerID, ClockOut)
}

func (s *Service) apply(ctx context.Context, action, entryID, workerID string, transition func(*model.Shift, time.Time) error) (*model.Shift, error) {
	updated, err := s.ledger.Update(ctx, entryID, workerID, func(rec *model.Shift) error {
		return transition(rec, s.Now())
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			s.logger.Error("shift update failed",
				zap.String("action", action),
				zap.String("shift_id", entryID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%s: %w", action, err)
		}
		return nil, err
	}
	s.logger.Info("shift updated",
		zap.String("action", action),
		zap.String("worker_id", workerID),
		zap.String("shift_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.Int("total_break_minutes", updated.TotalBreakMinutes),
	)
	return updated, nil
}

// Current returns the worker's active shift.
func (s *Service) Current(ctx context.Context, workerID string) (*model.Shift, error) {
	return s.ledger.FindActive(ctx, workerID)
}

// DaySummary aggregates the shifts that started on one UTC day.
type DaySummary struct {
	Date          string `json:"date"`
	Shifts        int    `json:"shifts"`
	WorkedMinutes int    `json:"worked_minutes"`
	BreakMinutes  int    `json:"break_minutes"`
}

// Summary is a worker's recent activity.
type Summary struct {
	WorkerID           string        `json:"worker_id"`
	From               time.Time     `json:"from"`
	To                 time.Time     `json:"to"`
	Days               []DaySummary  `json:"days"`
	TotalWorkedMinutes int           `json:"total_worked_minutes"`
	TotalBreakMinutes  int           `json:"total_break_minutes"`
	Shifts             []model.Shift `json:"shifts"`
}

// Summarize reports the worker's shifts started within the last days days.
func (s *Service) Summarize(ctx context.Context, workerID string, days int) (*Summary, error) {
	if days <= 0 || days > 92 {
		return nil, apperr.Validation("days must be between 1 and 92")
	}
	now := s.Now()
	since := now.AddDate(0, 0, -days)
	shifts, err := s.ledger.ListRecent(ctx, workerID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent shifts: %w", err)
	}

	sum := &Summary{WorkerID: workerID, From: since, To: now, Shifts: shifts}
	byDay := make(map[string]*DaySummary)
	for i := range shifts {
		rec := &shifts[i]
		key := rec.ClockIn.UTC().Format(time.DateOnly)
		d, ok := byDay[key]
		if !ok {
			d = &DaySummary{Date: key}
			byDay[key] = d
		}
		d.Shifts++
		d.WorkedMinutes += rec.WorkedMinutes()
		d.BreakMinutes += rec.TotalBreakMinutes
		sum.TotalWorkedMinutes += rec.WorkedMinutes()
		sum.TotalBreakMinutes += rec.TotalBreakMinutes
	}
	sum.Days = make([]DaySummary, 0, len(byDay))
	for _, d := range byDay {
		sum.Days = append(sum.Days, *d)
	}
	sort.Slice(sum.Days, func(i, j int) bool { return sum.Days[i].Date < sum.Days[j].Date })
	return sum, nil
}

// Recent returns the raw shift list used by exports.
func (s *Service) Recent(ctx context.Context, workerID string, days int) ([]model.Shift, error) {
	sum, err := s.Summarize(ctx, workerID, days)
	if err != nil {
		return nil, err
	}
	return sum.Shifts, nil
}
