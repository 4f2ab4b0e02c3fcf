package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
)

// maxUpdateAttempts bounds how often Update re-reads a record after losing
// a version race before giving up with ConcurrentModification.
const maxUpdateAttempts = 3

// Store defines every database operation of the service.
type Store interface {
	// Shift ledger.
	FindActive(ctx context.Context, workerID string) (*model.Shift, error)
	Create(ctx context.Context, s *model.Shift) error
	Get(ctx context.Context, id string) (*model.Shift, error)
	Update(ctx context.Context, id, workerID string, mutate func(*model.Shift) error) (*model.Shift, error)
	ListRecent(ctx context.Context, workerID string, since time.Time) ([]model.Shift, error)

	// Review queue.
	ListByStatus(ctx context.Context, companyID string, status model.ShiftStatus, offset, limit int) ([]model.Shift, int64, error)
	CountByStatus(ctx context.Context, companyID string) (map[model.ShiftStatus]int64, error)

	// Company policy.
	GetPolicy(ctx context.Context, companyID string) (*model.CompanyPolicy, error)
	UpsertPolicy(ctx context.Context, p *model.CompanyPolicy) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// FindActive returns the worker's active shift.
func (s *gormStore) FindActive(ctx context.Context, workerID string) (*model.Shift, error) {
	var rec model.Shift
	err := s.db.WithContext(ctx).
		Where("worker_id = ? AND status = ?", workerID, model.StatusActive).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("no active shift")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active shift for worker %s: %w", workerID, err)
	}
	return &rec, nil
}

// Create inserts a new shift. The partial unique index on active shifts
// makes the insert itself the existence check, so two racing clock-ins
// cannot both succeed.
func (s *gormStore) Create(ctx context.Context, rec *model.Shift) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(apperr.ReasonAlreadyClockedIn, "worker already has an active shift")
		}
		return fmt.Errorf("failed to create shift for worker %s: %w", rec.WorkerID, err)
	}
	return nil
}

// Get loads a shift by id.
func (s *gormStore) Get(ctx context.Context, id string) (*model.Shift, error) {
	var rec model.Shift
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("shift %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shift %s: %w", id, err)
	}
	return &rec, nil
}

// Update applies mutate to the latest committed version of a shift and
// writes it back only if nobody else wrote in between. An empty workerID
// skips the ownership check; reviewers authorize through the company instead.
func (s *gormStore) Update(ctx context.Context, id, workerID string, mutate func(*model.Shift) error) (*model.Shift, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if workerID != "" && cur.WorkerID != workerID {
			return nil, apperr.Forbidden("shift belongs to another worker")
		}

		next := cur.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}
		next.Version = cur.Version + 1
		next.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

		result := s.db.WithContext(ctx).
			Model(&model.Shift{}).
			Where("id = ? AND version = ?", id, cur.Version).
			Updates(map[string]interface{}{
				"clock_out":           next.ClockOut,
				"break_start":         next.BreakStart,
				"break_end":           next.BreakEnd,
				"total_break_minutes": next.TotalBreakMinutes,
				"status":              next.Status,
				"reviewed_by":         next.ReviewedBy,
				"reviewed_at":         next.ReviewedAt,
				"version":             next.Version,
				"updated_at":          next.UpdatedAt,
			})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update shift %s: %w", id, result.Error)
		}
		if result.RowsAffected == 1 {
			return next, nil
		}
		// Lost the race: re-read so preconditions see the winner's write.
	}
	return nil, apperr.Conflict(apperr.ReasonConcurrentModification, fmt.Sprintf("shift %s was modified concurrently", id))
}

// ListRecent returns the worker's shifts started at or after since, newest first.
func (s *gormStore) ListRecent(ctx context.Context, workerID string, since time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := s.db.WithContext(ctx).
		Where("worker_id = ? AND clock_in >= ?", workerID, since).
		Order("clock_in DESC").
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts for worker %s: %w", workerID, err)
	}
	return shifts, nil
}

// ListByStatus pages through a company's shifts in one review bucket.
func (s *gormStore) ListByStatus(ctx context.Context, companyID string, status model.ShiftStatus, offset, limit int) ([]model.Shift, int64, error) {
	base := s.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("company_id = ? AND status = ?", companyID, status)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s shifts: %w", status, err)
	}

	var shifts []model.Shift
	if err := base.Order("clock_in DESC").Offset(offset).Limit(limit).Find(&shifts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list %s shifts: %w", status, err)
	}
	return shifts, total, nil
}

// CountByStatus returns the size of each review bucket, zero-filled.
func (s *gormStore) CountByStatus(ctx context.Context, companyID string) (map[model.ShiftStatus]int64, error) {
	var rows []statusCount
	err := s.db.WithContext(ctx).
		Model(&model.Shift{}).
		Select("status, COUNT(*) AS total").
		Where("company_id = ? AND status IN ?", companyID, model.ReviewStatuses).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count shifts by status: %w", err)
	}

	counts := make(map[model.ShiftStatus]int64, len(model.ReviewStatuses))
	for _, st := range model.ReviewStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

// GetPolicy loads a company's saved policy.
func (s *gormStore) GetPolicy(ctx context.Context, companyID string) (*model.CompanyPolicy, error) {
	var p model.CompanyPolicy
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("no policy for company %s", companyID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy for company %s: %w", companyID, err)
	}
	return &p, nil
}

// UpsertPolicy creates or replaces a company's policy.
func (s *gormStore) UpsertPolicy(ctx context.Context, p *model.CompanyPolicy) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"break_type", "break_minutes", "break_trigger_hours",
			"lunch_type", "lunch_minutes", "lunch_trigger_hours",
			"overtime_rate_type", "overtime_daily", "overtime_weekly", "overtime_weekend",
			"updated_by", "updated_at",
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert policy for company %s: %w", p.CompanyID, err)
	}
	return nil
}

// isUniqueViolation recognizes a unique-index violation across drivers.
// gorm translates it when TranslateError is on; the message checks cover
// connections opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
