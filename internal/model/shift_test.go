package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundMinutes(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int
	}{
		{0, 0},
		{-5 * time.Minute, 0},
		{29 * time.Second, 0},
		{30 * time.Second, 1},
		{89 * time.Second, 1},
		{90 * time.Second, 2},
		{15 * time.Minute, 15},
		{15*time.Minute + 29*time.Second + 999*time.Millisecond, 15},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoundMinutes(tc.in), "RoundMinutes(%s)", tc.in)
	}
}

func TestWorkedMinutes(t *testing.T) {
	in := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	s := &Shift{ClockIn: in, ClockOut: &out, TotalBreakMinutes: 15, Status: StatusPending}

	assert.Equal(t, 465, s.WorkedMinutes())

	open := &Shift{ClockIn: in, Status: StatusActive}
	assert.Equal(t, 0, open.WorkedMinutes())
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	project := "p1"
	s := &Shift{ID: "s1", ProjectID: &project, BreakStart: &now, Status: StatusActive}

	c := s.Clone()
	*c.BreakStart = now.Add(time.Hour)
	*c.ProjectID = "p2"

	assert.Equal(t, now, *s.BreakStart)
	assert.Equal(t, "p1", *s.ProjectID)
	assert.Nil(t, (*Shift)(nil).Clone())
}

func TestFinalize(t *testing.T) {
	in := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	reviewer := "mgr-1"
	reviewedAt := out.Add(time.Hour)

	s := &Shift{
		ID: "s1", WorkerID: "w1", CompanyID: "c1",
		ClockIn: in, ClockOut: &out, TotalBreakMinutes: 15,
		Status: StatusVerified, ReviewedBy: &reviewer, ReviewedAt: &reviewedAt,
	}
	ft, ok := s.Finalize()
	assert.True(t, ok)
	assert.Equal(t, 465, ft.WorkedMinutes)
	assert.Equal(t, "mgr-1", ft.VerifiedBy)
	assert.Equal(t, "", ft.ProjectID)

	s.Status = StatusDisputed
	_, ok = s.Finalize()
	assert.False(t, ok)
}

func TestActor(t *testing.T) {
	worker := Actor{WorkerID: "w1", CompanyID: "c1", Roles: []Role{RoleWorker}}
	assert.False(t, worker.CanReview())
	assert.True(t, worker.Has(RoleWorker))
	assert.False(t, worker.Has(RoleAdmin))

	manager := Actor{WorkerID: "m1", CompanyID: "c1", Roles: []Role{RoleWorker, RoleManager}}
	assert.True(t, manager.CanReview())
	assert.False(t, manager.Has(RoleAdmin))
}
