// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progressview

import (
	"time"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatexport/internal/progress"
	"github.com/jeranaias/chatexport/internal/tasks"
	"github.com/jeranaias/chatexport/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// EventMsg carries one worker event into the program.
type EventMsg struct {
	Event progress.Event
}

// SummaryMsg ends the view with the job's summary.
type SummaryMsg struct {
	Summary tasks.Summary
}

// =============================================================================
// MODEL
// =============================================================================

const (
	defaultWidth = 80
	minBarWidth  = 20
	maxBarWidth  = 60
)

// Model is the bubbletea model of one export job.
type Model struct {
	sessions int
	format   string
	cancel   func() bool

	latest      progress.Progress
	hasProgress bool
	terminal    progress.Event
	summary     *tasks.Summary

	canceling bool
	quitting  bool

	bar     bar.Model
	spinner spinner.Model
	width   int
	start   time.Time
	now     func() time.Time
}

// New creates a view for a job of sessions sessions. cancel is called on the
// first Ctrl+C and may be nil.
func New(sessions int, format string, cancel func() bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	b := bar.New(bar.WithGradient(styles.GradientStart, styles.GradientEnd))
	b.Width = maxBarWidth

	return Model{
		sessions: sessions,
		format:   format,
		cancel:   cancel,
		bar:      b,
		spinner:  s,
		width:    defaultWidth,
		start:    time.Now(),
		now:      time.Now,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 20
		if w < minBarWidth {
			w = minBarWidth
		}
		if w > maxBarWidth {
			w = maxBarWidth
		}
		m.bar.Width = w
		return m, nil

	case spinner.TickMsg:
		if m.summary != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.apply(msg.Event)
		return m, nil

	case SummaryMsg:
		s := msg.Summary.Clone()
		m.summary = &s
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) apply(ev progress.Event) {
	switch e := ev.(type) {
	case progress.Progress:
		m.latest = e
		m.hasProgress = true
	case progress.Done, progress.Error:
		m.terminal = e
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.summary != nil || m.canceling {
			m.quitting = true
			return m, tea.Quit
		}
		m.canceling = true
		if m.cancel != nil && !m.cancel() {
			// Nothing running any more; the summary is on its way.
			m.canceling = false
		}
	}
	return m, nil
}

// Percent returns overall completion in [0, 1]. Finished sessions count
// whole; the current one counts by the share of its messages encoded.
func (m Model) Percent() float64 {
	if m.summary != nil || m.terminal != nil {
		return 1
	}
	if !m.hasProgress || m.sessions <= 0 {
		return 0
	}

	p := m.latest
	done := float64(p.SessionIndex)
	switch p.Stage {
	case progress.StageCompleted, progress.StageFailed:
		done++
	case progress.StageExporting:
		if p.ScannedCount > 0 {
			frac := float64(p.ExportedCount-p.TotalProcessed) / float64(p.ScannedCount)
			if frac > 1 {
				frac = 1
			}
			if frac > 0 {
				done += frac
			}
		}
	}

	pct := done / float64(m.sessions)
	if pct > 1 {
		pct = 1
	}
	return pct
}

// Canceling reports whether a cancel was requested and is still pending.
func (m Model) Canceling() bool {
	return m.canceling
}

// Summary returns the final summary once received.
func (m Model) Summary() (tasks.Summary, bool) {
	if m.summary == nil {
		return tasks.Summary{}, false
	}
	return *m.summary, true
}
