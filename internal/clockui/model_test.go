package clockui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/projector"
	"timekeeping-backend/internal/shift"
	"timekeeping-backend/internal/testfixtures"
)

func press(m tea.Model, k string) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

// run executes a command returned by Update and feeds its message back.
func run(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next
}

func TestModel_ClockInIsShownBeforeTheServerAnswers(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	clock.At(8, 0)
	session := projector.NewSession("w1", "c1", nil, projector.WithClock(clock.Now))

	release := make(chan struct{})
	server := projector.DispatcherFunc(func(ctx context.Context, cmd projector.Command) (*model.Shift, error) {
		<-release
		return shift.New("srv-1", "w1", "c1", cmd.ProjectID, clock.Now()), nil
	})

	project := "p1"
	var m tea.Model = New(session, server, &project, clock.Now)
	assert.Contains(t, m.View(), "Clocked out")

	m, cmd := press(m, "i")
	require.NotNil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "Working since")
	assert.Contains(t, view, "syncing clock in")

	// Keys are disabled while the clock-in is in flight.
	_, blocked := press(m, "o")
	assert.Nil(t, blocked)

	close(release)
	m = run(t, m, cmd)
	snap := session.Snapshot()
	assert.Nil(t, snap.InFlight)
	assert.Equal(t, "srv-1", snap.Confirmed.ID)
	assert.Equal(t, "p1", *snap.Confirmed.ProjectID)
	assert.NotContains(t, m.View(), "syncing")
}

func TestModel_BreakToggleAndClockOut(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	clock.At(8, 0)
	confirmed := shift.New("srv-1", "w1", "c1", nil, clock.Now())
	session := projector.NewSession("w1", "c1", confirmed, projector.WithClock(clock.Now))

	var actions []projector.Action
	server := projector.DispatcherFunc(func(ctx context.Context, cmd projector.Command) (*model.Shift, error) {
		actions = append(actions, cmd.Action)
		assert.Equal(t, "srv-1", cmd.EntryID)
		next := session.Snapshot().Optimistic
		next.ID = "srv-1"
		return next, nil
	})

	var m tea.Model = New(session, server, nil, clock.Now)

	clock.At(12, 0)
	m, cmd := press(m, "b")
	m = run(t, m, cmd)
	assert.Contains(t, m.View(), "On break since")

	clock.At(12, 30)
	m, cmd = press(m, "b")
	m = run(t, m, cmd)
	assert.Contains(t, m.View(), "worked 4h00m, breaks 0h30m")

	clock.At(17, 0)
	m, cmd = press(m, "o")
	m = run(t, m, cmd)
	assert.Contains(t, m.View(), "Clocked out")

	assert.Equal(t, []projector.Action{projector.ActionStartBreak, projector.ActionEndBreak, projector.ActionClockOut}, actions)
}

func TestModel_RejectedActionRollsBack(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	clock.At(8, 0)
	session := projector.NewSession("w1", "c1", nil, projector.WithClock(clock.Now))
	server := projector.DispatcherFunc(func(ctx context.Context, cmd projector.Command) (*model.Shift, error) {
		return nil, apperr.Conflict(apperr.ReasonAlreadyClockedIn, "already clocked in")
	})

	var m tea.Model = New(session, server, nil, clock.Now)
	m, cmd := press(m, "i")
	m = run(t, m, cmd)

	view := m.View()
	assert.Contains(t, view, "Clocked out")
	assert.Contains(t, view, "You are already clocked in.")
}

func TestModel_ImpossibleActionIsNotDispatched(t *testing.T) {
	session := projector.NewSession("w1", "c1", nil)
	server := projector.DispatcherFunc(func(ctx context.Context, cmd projector.Command) (*model.Shift, error) {
		t.Fatal("nothing should be dispatched")
		return nil, nil
	})

	var m tea.Model = New(session, server, nil, nil)
	m, cmd := press(m, "o")
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "You are not clocked in.")
}

func TestModel_Quit(t *testing.T) {
	session := projector.NewSession("w1", "c1", nil)
	var m tea.Model = New(session, nil, nil, nil)
	m, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}
