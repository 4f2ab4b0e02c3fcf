// Package clockui is the worker's terminal time clock. Every key press is
// shown immediately through the projector and reconciled when the server
// answers; keys are disabled while an action is in flight.
package clockui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/projector"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	workingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	breakStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	syncingStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	keyStyle      = lipgloss.NewStyle().Bold(true)
	disabledStyle = lipgloss.NewStyle().Faint(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// resultMsg reports that a dispatched action finished.
type resultMsg struct {
	rec *model.Shift
	err error
}

type tickMsg time.Time

// Model is the bubbletea model of the time clock.
type Model struct {
	session    *projector.Session
	dispatcher projector.Dispatcher
	projectID  *string
	now        func() time.Time
	quitting   bool
}

// New creates the time clock for a session. projectID is attached to
// clock-ins and may be nil.
func New(session *projector.Session, dispatcher projector.Dispatcher, projectID *string, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{session: session, dispatcher: dispatcher, projectID: projectID, now: now}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "i":
			return m, m.act(projector.ActionClockIn)
		case "b":
			action := projector.ActionStartBreak
			if cur := m.session.Snapshot().Optimistic; cur != nil && cur.OnBreak() {
				action = projector.ActionEndBreak
			}
			return m, m.act(action)
		case "o":
			return m, m.act(projector.ActionClockOut)
		}
	case resultMsg:
		// The session already holds the outcome; the next View renders it.
		return m, nil
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

// act predicts the action synchronously and returns the command that
// dispatches it. Nothing is dispatched while another action is in flight
// or when the prediction fails.
func (m Model) act(action projector.Action) tea.Cmd {
	cmd := projector.Command{Action: action}
	if action == projector.ActionClockIn {
		cmd.ProjectID = m.projectID
	}
	begun, _, err := m.session.Begin(cmd)
	if err != nil {
		return nil
	}
	return func() tea.Msg {
		rec, err := m.session.Complete(context.Background(), m.dispatcher, begun)
		return resultMsg{rec: rec, err: err}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	view := m.session.Snapshot()
	now := m.now()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Time clock"))
	b.WriteString("\n\n")
	b.WriteString(status(view.Optimistic, now))
	b.WriteString("\n")

	if view.InFlight != nil {
		b.WriteString(syncingStyle.Render(fmt.Sprintf("syncing %s…", strings.ReplaceAll(string(view.InFlight.Action), "_", " "))))
		b.WriteString("\n")
	} else if view.LastErr != nil {
		b.WriteString(errorStyle.Render(describe(view.LastErr)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(help(view))
	return boxStyle.Render(b.String()) + "\n"
}

func status(cur *model.Shift, now time.Time) string {
	if cur == nil || !cur.IsActive() {
		return idleStyle.Render("Clocked out")
	}

	breakMinutes := cur.TotalBreakMinutes
	if cur.OnBreak() {
		breakMinutes += model.RoundMinutes(now.Sub(*cur.BreakStart))
	}
	worked := model.RoundMinutes(now.Sub(cur.ClockIn)) - breakMinutes
	if worked < 0 {
		worked = 0
	}

	line := fmt.Sprintf("worked %s, breaks %s", hm(worked), hm(breakMinutes))
	if cur.OnBreak() {
		return breakStyle.Render("On break since "+cur.BreakStart.Local().Format("15:04")) + "\n" + line
	}
	return workingStyle.Render("Working since "+cur.ClockIn.Local().Format("15:04")) + "\n" + line
}

func describe(err error) string {
	switch apperr.ReasonOf(err) {
	case apperr.ReasonAlreadyClockedIn:
		return "You are already clocked in."
	case apperr.ReasonNoActiveShift:
		return "You are not clocked in."
	case apperr.ReasonBreakAlreadyActive:
		return "A break is already running."
	case apperr.ReasonNoActiveBreak:
		return "No break is running."
	}
	if kind := apperr.KindOf(err); kind != "" {
		return fmt.Sprintf("%s: %s", kind, apperr.ToResponse(err).Error)
	}
	return "Could not reach the server, nothing was changed."
}

func help(view projector.View) string {
	cur := view.Optimistic
	idle := view.InFlight == nil
	active := cur != nil && cur.IsActive()

	breakLabel := "start break"
	if active && cur.OnBreak() {
		breakLabel = "end break"
	}

	keys := []string{
		key("i", "clock in", idle && !active),
		key("b", breakLabel, idle && active),
		key("o", "clock out", idle && active),
		key("q", "quit", true),
	}
	return strings.Join(keys, "  ")
}

func key(k, label string, enabled bool) string {
	if !enabled {
		return disabledStyle.Render(k + " " + label)
	}
	return keyStyle.Render(k) + " " + label
}

func hm(minutes int) string {
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
