// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progressview

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatexport/internal/progress"
	"github.com/jeranaias/chatexport/internal/tasks"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	require.True(t, ok)
	return mm, cmd
}

func TestPercent(t *testing.T) {
	m := New(4, "json", nil)
	assert.Equal(t, 0.0, m.Percent())

	tests := []struct {
		name string
		ev   progress.Progress
		want float64
	}{
		{"first session scanning", progress.Progress{SessionIndex: 0, Stage: progress.StageScanning}, 0},
		{"half of second session encoded", progress.Progress{
			SessionIndex: 1, Stage: progress.StageExporting,
			ScannedCount: 10, TotalProcessed: 20, ExportedCount: 25,
		}, 1.5 / 4},
		{"third session failed", progress.Progress{SessionIndex: 2, Stage: progress.StageFailed}, 3.0 / 4},
		{"last session completed", progress.Progress{SessionIndex: 3, Stage: progress.StageCompleted}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := update(t, m, EventMsg{Event: tt.ev})
			assert.InDelta(t, tt.want, next.Percent(), 1e-9)
		})
	}
}

func TestView_ShowsSessionAndCounts(t *testing.T) {
	m := New(2, "html", nil)
	assert.Contains(t, m.View(), "Opening message store")

	m, _ = update(t, m, EventMsg{Event: progress.Progress{
		SessionIndex: 1, SessionName: "Family", ScannedCount: 12,
		SuccessCount: 1, TotalProcessed: 40, Stage: progress.StageScanned,
	}})
	v := m.View()
	assert.Contains(t, v, "[2/2]")
	assert.Contains(t, v, "Family")
	assert.Contains(t, v, "scanned 12")
	assert.Contains(t, v, "1 exported")
	assert.Contains(t, v, "40 messages")
	assert.Contains(t, v, "Press Ctrl+C to cancel")
}

func TestView_TruncatesLongNames(t *testing.T) {
	m := New(1, "", nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 50, Height: 20})
	long := "a-very-long-session-name-that-does-not-fit-anywhere"
	m, _ = update(t, m, EventMsg{Event: progress.Progress{SessionName: long, Stage: progress.StageScanning}})
	assert.NotContains(t, m.View(), long)
}

func TestCancelKey(t *testing.T) {
	calls := 0
	m := New(1, "json", func() bool { calls++; return true })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd, "first ctrl+c cancels without quitting")
	assert.Equal(t, 1, calls)
	assert.True(t, m.Canceling())
	assert.Contains(t, m.View(), "Canceling")

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, calls)
}

func TestCancelKey_NothingRunning(t *testing.T) {
	m := New(1, "json", func() bool { return false })
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.False(t, m.Canceling())
}

func TestSummaryQuits(t *testing.T) {
	m := New(2, "json", nil)
	m, _ = update(t, m, EventMsg{Event: progress.Done{SuccessCount: 1, FailedCount: 1}})
	assert.Equal(t, 1.0, m.Percent())

	m, cmd := update(t, m, SummaryMsg{Summary: tasks.Summary{
		SuccessCount: 1, FailedCount: 1, TotalProcessed: 7,
		FailedSessions: []string{"B (no messages)"},
		StartTime:      time.Unix(0, 0), EndTime: time.Unix(3, 0),
	}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	v := m.View()
	assert.Contains(t, v, "Exported 1 session(s), 7 message(s); 1 failed")
	assert.Contains(t, v, "- B (no messages)")
	assert.Contains(t, v, "3s")

	s, ok := m.Summary()
	require.True(t, ok)
	assert.Equal(t, 7, s.TotalProcessed)
}

func TestSummary_Canceled(t *testing.T) {
	m := New(1, "json", nil)
	m, _ = update(t, m, SummaryMsg{Summary: tasks.Summary{Canceled: true, Reason: "export canceled"}})
	assert.Contains(t, m.View(), "Export canceled")
	assert.NotContains(t, m.View(), "export failed (")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "4s", formatElapsed(4*time.Second))
	assert.Equal(t, "1m05s", formatElapsed(65*time.Second))
	assert.Equal(t, "1h02m", formatElapsed(62*time.Minute))
}
