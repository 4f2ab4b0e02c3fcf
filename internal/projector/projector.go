// Package projector keeps a worker's client-side view of their shift
// responsive while actions travel to the server. Each action is predicted
// locally, dispatched, then either committed with the server's record or
// rolled back to the last confirmed state.
package projector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/shift"
)

// DefaultTimeout bounds a dispatched action. A timeout counts as a failure.
const DefaultTimeout = 10 * time.Second

// LocalID marks an optimistic shift the server has not assigned an id to yet.
const LocalID = "local"

// Action is one of the worker actions the server understands.
type Action string

const (
	ActionClockIn    Action = "clock_in"
	ActionStartBreak Action = "start_break"
	ActionEndBreak   Action = "end_break"
	ActionClockOut   Action = "clock_out"
)

// Command is an action addressed at a shift.
type Command struct {
	Action    Action
	EntryID   string
	ProjectID *string
}

// Dispatcher sends a command to the server and returns the confirmed record.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd Command) (*model.Shift, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, cmd Command) (*model.Shift, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, cmd Command) (*model.Shift, error) {
	return f(ctx, cmd)
}

// ErrActionInFlight is returned by Begin while an earlier action is unresolved.
var ErrActionInFlight = apperr.Conflict(apperr.ReasonActionInFlight, "another action is still in flight")

// Predict computes the state the server will return for cmd, using the
// same transition rules. It never mutates state. An action the server
// would reject fails with the same error.
func Predict(state *model.Shift, workerID, companyID string, cmd Command, now time.Time) (*model.Shift, error) {
	if cmd.Action == ActionClockIn {
		if err := shift.CanClockIn(state); err != nil {
			return nil, err
		}
		return shift.New(LocalID, workerID, companyID, cmd.ProjectID, now), nil
	}

	var transition func(*model.Shift, time.Time) error
	switch cmd.Action {
	case ActionStartBreak:
		transition = shift.StartBreak
	case ActionEndBreak:
		transition = shift.EndBreak
	case ActionClockOut:
		transition = shift.ClockOut
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown action %q", cmd.Action))
	}

	if state == nil {
		return nil, apperr.Conflict(apperr.ReasonNoActiveShift, "not clocked in")
	}
	next := state.Clone()
	if err := transition(next, now); err != nil {
		return nil, err
	}
	return next, nil
}

// View is a consistent snapshot of a session.
type View struct {
	Confirmed  *model.Shift
	Optimistic *model.Shift
	InFlight   *Command
	LastErr    error
}

// Session is the projector state of one signed-in worker. It is safe for
// concurrent use; at most one action is in flight at a time.
type Session struct {
	workerID  string
	companyID string
	now       func() time.Time
	timeout   time.Duration

	mu         sync.Mutex
	confirmed  *model.Shift
	optimistic *model.Shift
	inFlight   *Command
	lastErr    error
}

// Option customizes a Session.
type Option func(*Session)

// WithClock replaces the clock used for predictions.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// NewSession starts a session from the server's view of the worker's shift,
// which may be nil.
func NewSession(workerID, companyID string, confirmed *model.Shift, opts ...Option) *Session {
	s := &Session{
		workerID:   workerID,
		companyID:  companyID,
		now:        time.Now,
		timeout:    DefaultTimeout,
		confirmed:  confirmed.Clone(),
		optimistic: confirmed.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin predicts cmd and installs the prediction as the optimistic state.
// It does no I/O. The returned command carries the resolved entry id.
func (s *Session) Begin(cmd Command) (Command, *model.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight != nil {
		return cmd, nil, ErrActionInFlight
	}
	if cmd.Action != ActionClockIn && cmd.EntryID == "" && s.confirmed != nil {
		cmd.EntryID = s.confirmed.ID
	}

	predicted, err := Predict(s.confirmed, s.workerID, s.companyID, cmd, s.now().UTC())
	if err != nil {
		s.lastErr = err
		return cmd, nil, err
	}

	pending := cmd
	s.inFlight = &pending
	s.optimistic = predicted
	s.lastErr = nil
	return cmd, predicted.Clone(), nil
}

// Resolve commits the server's record as the new confirmed state.
func (s *Session) Resolve(confirmed *model.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed = confirmed.Clone()
	s.optimistic = confirmed.Clone()
	s.inFlight = nil
	s.lastErr = nil
}

// Reject discards the prediction and keeps err for display.
func (s *Session) Reject(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.optimistic = s.confirmed.Clone()
	s.inFlight = nil
	s.lastErr = err
}

// Run performs cmd end to end: predict, dispatch with a bounded timeout,
// then commit or roll back.
func (s *Session) Run(ctx context.Context, d Dispatcher, cmd Command) (*model.Shift, error) {
	cmd, _, err := s.Begin(cmd)
	if err != nil {
		return nil, err
	}
	return s.Complete(ctx, d, cmd)
}

// Complete dispatches a command accepted by Begin and commits or rolls back
// the session with the outcome. The dispatched call is cancelled only by
// the timeout, never by ctx.
func (s *Session) Complete(ctx context.Context, d Dispatcher, cmd Command) (*model.Shift, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	confirmed, err := d.Dispatch(callCtx, cmd)
	if err == nil && confirmed == nil {
		err = fmt.Errorf("%s: server returned no record", cmd.Action)
	}
	if err != nil {
		s.Reject(err)
		return nil, err
	}
	s.Resolve(confirmed)
	return confirmed.Clone(), nil
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Confirmed:  s.confirmed.Clone(),
		Optimistic: s.optimistic.Clone(),
		LastErr:    s.lastErr,
	}
	if s.inFlight != nil {
		c := *s.inFlight
		v.InFlight = &c
	}
	return v
}
