package review

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/store"
	"timekeeping-backend/internal/testfixtures"
)

type recordingFeed struct {
	mu    sync.Mutex
	items []model.FinalizedTimesheet
	full  bool
}

func (f *recordingFeed) Dispatch(ft model.FinalizedTimesheet) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.items = append(f.items, ft)
	return true
}

var (
	manager = model.Actor{WorkerID: "m1", CompanyID: "c1", Roles: []model.Role{model.RoleManager}}
	admin   = model.Actor{WorkerID: "a1", CompanyID: "c1", Roles: []model.Role{model.RoleAdmin}}
)

func newTestService(t *testing.T) (*Service, store.Store, *recordingFeed) {
	t.Helper()
	st := store.NewGormStore(testfixtures.NewSQLiteDB(t))
	feed := &recordingFeed{}
	clock := testfixtures.NewClock(testfixtures.ReferenceTime().Add(20 * time.Hour))
	return NewService(st, feed, zap.NewNop(), clock.Now), st, feed
}

func seedShift(t *testing.T, st store.Store, id, company string, status model.ShiftStatus) {
	t.Helper()
	in := testfixtures.ReferenceTime().Add(8 * time.Hour)
	rec := &model.Shift{ID: id, WorkerID: "w-" + id, CompanyID: company, ClockIn: in, Status: status, Version: 1}
	if status != model.StatusActive {
		out := in.Add(8 * time.Hour)
		rec.ClockOut = &out
		rec.TotalBreakMinutes = 30
	}
	require.NoError(t, st.Create(context.Background(), rec))
}

func TestWorkflowTransitions(t *testing.T) {
	testCases := []struct {
		from       model.ShiftStatus
		approveTo  model.ShiftStatus
		approveErr string
		disputeTo  model.ShiftStatus
		disputeErr string
	}{
		{from: model.StatusPending, approveTo: model.StatusVerified, disputeTo: model.StatusDisputed},
		{from: model.StatusDisputed, approveTo: model.StatusVerified, disputeErr: apperr.ReasonNotPending},
		{from: model.StatusVerified, approveErr: apperr.ReasonAlreadyVerified, disputeErr: apperr.ReasonNotPending},
		{from: model.StatusActive, approveErr: apperr.ReasonShiftStillActive, disputeErr: apperr.ReasonNotPending},
	}
	now := testfixtures.ReferenceTime()

	for _, tc := range testCases {
		t.Run(string(tc.from), func(t *testing.T) {
			rec := &model.Shift{ID: "s1", Status: tc.from}
			err := Approve(rec, "m1", now)
			if tc.approveErr != "" {
				assert.Equal(t, tc.approveErr, apperr.ReasonOf(err))
				assert.Equal(t, tc.from, rec.Status)
				assert.Nil(t, rec.ReviewedBy)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.approveTo, rec.Status)
				require.NotNil(t, rec.ReviewedBy)
				assert.Equal(t, "m1", *rec.ReviewedBy)
			}

			rec = &model.Shift{ID: "s1", Status: tc.from}
			err = Dispute(rec, "m1", now)
			if tc.disputeErr != "" {
				assert.Equal(t, tc.disputeErr, apperr.ReasonOf(err))
				assert.Equal(t, tc.from, rec.Status)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.disputeTo, rec.Status)
			}
		})
	}
}

func TestService_ScenarioB(t *testing.T) {
	svc, st, feed := newTestService(t)
	ctx := context.Background()

	// Approve straight from Pending.
	seedShift(t, st, "s1", "c1", model.StatusPending)
	rec, err := svc.Approve(ctx, "s1", manager)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, rec.Status)

	// Dispute first, then approve the Disputed record.
	seedShift(t, st, "s2", "c1", model.StatusPending)
	rec, err = svc.Dispute(ctx, "s2", manager)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDisputed, rec.Status)

	rec, err = svc.Approve(ctx, "s2", admin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, rec.Status)
	require.NotNil(t, rec.ReviewedBy)
	assert.Equal(t, "a1", *rec.ReviewedBy)

	require.Len(t, feed.items, 2)
	assert.Equal(t, "s1", feed.items[0].ShiftID)
	assert.Equal(t, 450, feed.items[0].WorkedMinutes)
	assert.Equal(t, "m1", feed.items[0].VerifiedBy)
	assert.Equal(t, "s2", feed.items[1].ShiftID)

	_, err = svc.Approve(ctx, "s2", admin)
	assert.Equal(t, apperr.ReasonAlreadyVerified, apperr.ReasonOf(err))
	assert.Len(t, feed.items, 2, "a rejected approval publishes nothing")
}

func TestService_Authorization(t *testing.T) {
	svc, st, feed := newTestService(t)
	ctx := context.Background()
	seedShift(t, st, "s1", "c1", model.StatusPending)

	worker := model.Actor{WorkerID: "w1", CompanyID: "c1", Roles: []model.Role{model.RoleWorker}}
	_, err := svc.Approve(ctx, "s1", worker)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	outsider := model.Actor{WorkerID: "m9", CompanyID: "c9", Roles: []model.Role{model.RoleManager}}
	_, err = svc.Dispute(ctx, "s1", outsider)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = svc.Approve(ctx, "missing", manager)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.Counts(ctx, worker)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	got, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Empty(t, feed.items)
}

func TestService_ApproveActiveShift(t *testing.T) {
	svc, st, _ := newTestService(t)
	seedShift(t, st, "s1", "c1", model.StatusActive)

	_, err := svc.Approve(context.Background(), "s1", manager)
	assert.Equal(t, apperr.ReasonShiftStillActive, apperr.ReasonOf(err))
}

func TestService_FullFeedDoesNotFailApproval(t *testing.T) {
	svc, st, feed := newTestService(t)
	feed.full = true
	seedShift(t, st, "s1", "c1", model.StatusPending)

	rec, err := svc.Approve(context.Background(), "s1", manager)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, rec.Status)
}

func TestService_ListAndCounts(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedShift(t, st, fmt.Sprintf("p%d", i), "c1", model.StatusPending)
	}
	seedShift(t, st, "d1", "c1", model.StatusDisputed)
	seedShift(t, st, "o1", "c2", model.StatusPending)

	page, err := svc.List(ctx, manager, model.StatusPending, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page)

	page, err = svc.List(ctx, manager, model.StatusVerified, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)

	_, err = svc.List(ctx, manager, model.StatusActive, 1, 10)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	counts, err := svc.Counts(ctx, manager)
	require.NoError(t, err)
	assert.EqualValues(t, 5, counts[model.StatusPending])
	assert.EqualValues(t, 1, counts[model.StatusDisputed])
	assert.EqualValues(t, 0, counts[model.StatusVerified])
}

func TestService_Collect(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < MaxPageSize+3; i++ {
		seedShift(t, st, fmt.Sprintf("v%03d", i), "c1", model.StatusVerified)
	}
	seedShift(t, st, "other", "c2", model.StatusVerified)

	all, err := svc.Collect(ctx, admin, model.StatusVerified)
	require.NoError(t, err)
	assert.Len(t, all, MaxPageSize+3)
	for _, rec := range all {
		assert.Equal(t, "c1", rec.CompanyID)
	}

	_, err = svc.Collect(ctx, model.Actor{WorkerID: "w1", CompanyID: "c1", Roles: []model.Role{model.RoleWorker}}, model.StatusVerified)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
