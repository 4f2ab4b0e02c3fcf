package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/parse"
)

// Store persists company policies.
type Store interface {
	GetPolicy(ctx context.Context, companyID string) (*model.CompanyPolicy, error)
	UpsertPolicy(ctx context.Context, p *model.CompanyPolicy) error
}

// Input is a policy as submitted by a client. Enumerations arrive as raw
// strings and are parsed before anything is stored.
type Input struct {
	BreakType         string  `json:"break_type"`
	BreakMinutes      int     `json:"break_minutes"`
	BreakTriggerHours float64 `json:"break_trigger_hours"`
	LunchType         string  `json:"lunch_type"`
	LunchMinutes      int     `json:"lunch_minutes"`
	LunchTriggerHours float64 `json:"lunch_trigger_hours"`
	OvertimeRateType  string  `json:"overtime_rate_type"`
	OvertimeDaily     bool    `json:"overtime_daily"`
	OvertimeWeekly    bool    `json:"overtime_weekly"`
	OvertimeWeekend   bool    `json:"overtime_weekend"`
}

// Service reads and writes company policies. It never interprets them.
type Service struct {
	store  Store
	cache  *cache.Cache
	logger *zap.Logger
}

// NewService creates a policy service whose reads are cached for ttl.
func NewService(store Store, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Get returns the caller's company policy, or the default one if the
// company never saved a policy.
func (s *Service) Get(ctx context.Context, actor model.Actor) (*model.CompanyPolicy, error) {
	if cached, found := s.cache.Get(actor.CompanyID); found {
		p := cached.(model.CompanyPolicy)
		return &p, nil
	}

	p, err := s.store.GetPolicy(ctx, actor.CompanyID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		def := model.DefaultPolicy(actor.CompanyID)
		p, err = &def, nil
	}
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(actor.CompanyID, *p)
	return p, nil
}

// Put replaces the caller's company policy. Only admins may change it.
func (s *Service) Put(ctx context.Context, actor model.Actor, in Input) (*model.CompanyPolicy, error) {
	if !actor.Has(model.RoleAdmin) {
		return nil, apperr.Forbidden("changing the company policy requires the admin role")
	}

	p, err := in.toPolicy(actor.CompanyID)
	if err != nil {
		return nil, err
	}
	p.UpdatedBy = actor.WorkerID

	if err := s.store.UpsertPolicy(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Delete(actor.CompanyID)

	s.logger.Info("company policy updated",
		zap.String("company_id", actor.CompanyID),
		zap.String("updated_by", actor.WorkerID),
	)
	return p, nil
}

func (in Input) toPolicy(companyID string) (*model.CompanyPolicy, error) {
	breakType, err := parse.BreakType("break_type", in.BreakType)
	if err != nil {
		return nil, err
	}
	lunchType, err := parse.BreakType("lunch_type", in.LunchType)
	if err != nil {
		return nil, err
	}
	overtime, err := parse.OvertimeRateType(in.OvertimeRateType)
	if err != nil {
		return nil, err
	}

	var errs []error
	if in.BreakMinutes < 0 || in.LunchMinutes < 0 {
		errs = append(errs, errors.New("break and lunch minutes must not be negative"))
	}
	for field, hours := range map[string]float64{
		"break_trigger_hours": in.BreakTriggerHours,
		"lunch_trigger_hours": in.LunchTriggerHours,
	} {
		if hours < 0 || hours > 24 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 24", field))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	return &model.CompanyPolicy{
		CompanyID:         companyID,
		BreakType:         breakType,
		BreakMinutes:      in.BreakMinutes,
		BreakTriggerHours: in.BreakTriggerHours,
		LunchType:         lunchType,
		LunchMinutes:      in.LunchMinutes,
		LunchTriggerHours: in.LunchTriggerHours,
		OvertimeRateType:  overtime,
		OvertimeDaily:     in.OvertimeDaily,
		OvertimeWeekly:    in.OvertimeWeekly,
		OvertimeWeekend:   in.OvertimeWeekend,
	}, nil
}
