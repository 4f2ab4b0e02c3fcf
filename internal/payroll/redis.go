package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"timekeeping-backend/config"
	"timekeeping-backend/internal/model"
)

// NewRedisClient connects to redis and verifies the connection with a ping.
func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))
	return rdb, nil
}

// StreamPublisher appends finalized timesheets to a redis stream.
type StreamPublisher struct {
	rdb    goredis.Cmdable
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher writing to cfg.Stream, trimmed to
// roughly cfg.MaxLen entries.
func NewStreamPublisher(rdb goredis.Cmdable, cfg *config.PayrollConfig) *StreamPublisher {
	return &StreamPublisher{rdb: rdb, stream: cfg.Stream, maxLen: cfg.MaxLen}
}

// Publish appends one entry keyed by shift id.
func (p *StreamPublisher) Publish(ctx context.Context, ft model.FinalizedTimesheet) error {
	payload, err := json.Marshal(ft)
	if err != nil {
		return fmt.Errorf("failed to encode timesheet %s: %w", ft.ShiftID, err)
	}

	err = p.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"shift_id":   ft.ShiftID,
			"company_id": ft.CompanyID,
			"payload":    string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append timesheet %s to %s: %w", ft.ShiftID, p.stream, err)
	}
	return nil
}

// LogPublisher records timesheets in the log when no redis is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ft model.FinalizedTimesheet) error {
	p.logger.Info("finalized timesheet",
		zap.String("shift_id", ft.ShiftID),
		zap.String("worker_id", ft.WorkerID),
		zap.String("company_id", ft.CompanyID),
		zap.Int("worked_minutes", ft.WorkedMinutes),
		zap.Int("total_break_minutes", ft.TotalBreakMinutes),
	)
	return nil
}
