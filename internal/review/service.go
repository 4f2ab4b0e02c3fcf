package review

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxExportRows caps how many timesheets one export reads.
	MaxExportRows = 5000
)

// Ledger is the part of the shift store the review workflow needs.
type Ledger interface {
	Update(ctx context.Context, id, workerID string, mutate func(*model.Shift) error) (*model.Shift, error)
	ListByStatus(ctx context.Context, companyID string, status model.ShiftStatus, offset, limit int) ([]model.Shift, int64, error)
	CountByStatus(ctx context.Context, companyID string) (map[model.ShiftStatus]int64, error)
}

// Feed receives timesheets once they are verified.
type Feed interface {
	Dispatch(ft model.FinalizedTimesheet) bool
}

// Service runs the reviewer side of the shift lifecycle.
type Service struct {
	ledger Ledger
	feed   Feed
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a review service. feed may be nil.
func NewService(ledger Ledger, feed Feed, logger *zap.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{ledger: ledger, feed: feed, logger: logger, now: now}
}

// Page is one page of a review queue.
type Page struct {
	Status   model.ShiftStatus `json:"status"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int64             `json:"total"`
	Items    []model.Shift     `json:"items"`
}

// Approve moves a shift to Verified and hands it to payroll.
func (s *Service) Approve(ctx context.Context, entryID string, reviewer model.Actor) (*model.Shift, error) {
	updated, err := s.transition(ctx, "approve", entryID, reviewer, Approve)
	if err != nil {
		return nil, err
	}

	if ft, ok := updated.Finalize(); ok && s.feed != nil {
		if !s.feed.Dispatch(ft) {
			s.logger.Warn("payroll feed queue full, timesheet not published",
				zap.String("shift_id", ft.ShiftID))
		}
	}
	return updated, nil
}

// Dispute moves a Pending shift to Disputed.
func (s *Service) Dispute(ctx context.Context, entryID string, reviewer model.Actor) (*model.Shift, error) {
	return s.transition(ctx, "dispute", entryID, reviewer, Dispute)
}

func (s *Service) transition(ctx context.Context, action, entryID string, reviewer model.Actor, apply func(*model.Shift, string, time.Time) error) (*model.Shift, error) {
	if !reviewer.CanReview() {
		return nil, apperr.Forbidden("reviewing timesheets requires the admin or manager role")
	}

	updated, err := s.ledger.Update(ctx, entryID, "", func(rec *model.Shift) error {
		if rec.CompanyID != reviewer.CompanyID {
			return apperr.Forbidden("timesheet belongs to another company")
		}
		return apply(rec, reviewer.WorkerID, s.now().UTC().Truncate(time.Microsecond))
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			return nil, fmt.Errorf("%s: %w", action, err)
		}
		s.logger.Info("review rejected",
			zap.String("action", action),
			zap.String("shift_id", entryID),
			zap.String("reviewer_id", reviewer.WorkerID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("timesheet reviewed",
		zap.String("action", action),
		zap.String("shift_id", updated.ID),
		zap.String("reviewer_id", reviewer.WorkerID),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// List pages through the reviewer's company queue for one status.
func (s *Service) List(ctx context.Context, reviewer model.Actor, status model.ShiftStatus, page, pageSize int) (*Page, error) {
	if !reviewer.CanReview() {
		return nil, apperr.Forbidden("reviewing timesheets requires the admin or manager role")
	}
	if status == model.StatusActive {
		return nil, apperr.Validation("active shifts are not reviewable")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := s.ledger.ListByStatus(ctx, reviewer.CompanyID, status, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Shift{}
	}
	return &Page{Status: status, Page: page, PageSize: pageSize, Total: total, Items: items}, nil
}

// Counts returns the size of each review queue of the reviewer's company.
func (s *Service) Counts(ctx context.Context, reviewer model.Actor) (map[model.ShiftStatus]int64, error) {
	if !reviewer.CanReview() {
		return nil, apperr.Forbidden("reviewing timesheets requires the admin or manager role")
	}
	return s.ledger.CountByStatus(ctx, reviewer.CompanyID)
}

// Collect reads a whole review queue, up to MaxExportRows shifts, for exports.
func (s *Service) Collect(ctx context.Context, reviewer model.Actor, status model.ShiftStatus) ([]model.Shift, error) {
	var all []model.Shift
	for page := 1; len(all) < MaxExportRows; page++ {
		p, err := s.List(ctx, reviewer, status, page, MaxPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if len(p.Items) < MaxPageSize || int64(len(all)) >= p.Total {
			break
		}
	}
	if len(all) > MaxExportRows {
		all = all[:MaxExportRows]
	}
	return all, nil
}
