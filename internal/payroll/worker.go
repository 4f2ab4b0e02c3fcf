package payroll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"timekeeping-backend/internal/model"
)

// Publisher delivers a finalized timesheet to the payroll system.
type Publisher interface {
	Publish(ctx context.Context, ft model.FinalizedTimesheet) error
}

const (
	publishAttempts = 3
	publishBackoff  = 200 * time.Millisecond
)

// WorkerPool publishes finalized timesheets in the background so that a
// reviewer's approval never waits on the payroll feed.
type WorkerPool struct {
	size      int
	jobs      chan model.FinalizedTimesheet
	publisher Publisher
	logger    *zap.Logger
	backoff   time.Duration
	wg        sync.WaitGroup
}

// NewWorkerPool creates a new worker pool with a queue of queueSize jobs.
func NewWorkerPool(size, queueSize int, publisher Publisher, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		size:      size,
		jobs:      make(chan model.FinalizedTimesheet, queueSize),
		publisher: publisher,
		logger:    logger,
		backoff:   publishBackoff,
	}
}

// Start launches the worker goroutines. They stop when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has stopped.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
	if n := len(wp.jobs); n > 0 {
		wp.logger.Warn("payroll workers stopped with unpublished timesheets", zap.Int("pending", n))
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.logger.Debug("payroll worker started", zap.Int("worker", id))
	for {
		select {
		case ft := <-wp.jobs:
			wp.publish(ctx, ft)
		case <-ctx.Done():
			wp.logger.Debug("payroll worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a timesheet without blocking. It reports false when the
// queue is full.
func (wp *WorkerPool) Dispatch(ft model.FinalizedTimesheet) bool {
	select {
	case wp.jobs <- ft:
		return true
	default:
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.FinalizedTimesheet {
	return wp.jobs
}

func (wp *WorkerPool) publish(ctx context.Context, ft model.FinalizedTimesheet) {
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = wp.publisher.Publish(ctx, ft); err == nil {
			wp.logger.Info("timesheet published",
				zap.String("shift_id", ft.ShiftID),
				zap.String("worker_id", ft.WorkerID),
				zap.Int("worked_minutes", ft.WorkedMinutes),
			)
			return
		}
		wp.logger.Warn("publishing timesheet failed",
			zap.String("shift_id", ft.ShiftID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-time.After(wp.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return
		}
	}
	wp.logger.Error("giving up on timesheet", zap.String("shift_id", ft.ShiftID), zap.Error(err))
}
