// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progressview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatexport/internal/progress"
	"github.com/jeranaias/chatexport/internal/ui/styles"
	"github.com/jeranaias/chatexport/internal/util"
)

// =============================================================================
// RENDERING
// =============================================================================

var (
	counterStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
	nameStyle    = lipgloss.NewStyle().Foreground(styles.Cyan)
	statStyle    = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	mutedStyle   = lipgloss.NewStyle().Foreground(styles.TextMuted)
	hintStyle    = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
)

// View renders the model.
func (m Model) View() string {
	if m.summary != nil {
		return m.viewSummary()
	}

	var lines []string
	lines = append(lines, m.renderHeader())
	lines = append(lines, m.bar.ViewAs(m.Percent()))
	lines = append(lines, m.renderCounts())

	switch {
	case m.canceling:
		lines = append(lines, styles.RenderWarning("Canceling after the current step..."))
	case !m.quitting:
		lines = append(lines, hintStyle.Render("Press Ctrl+C to cancel"))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) renderHeader() string {
	if !m.hasProgress {
		return m.spinner.View() + " " + statStyle.Render("Opening message store...")
	}

	p := m.latest
	counter := counterStyle.Render(fmt.Sprintf("[%d/%d]", p.SessionIndex+1, m.sessions))

	// Room for counter, spinner, stage label and separators.
	nameWidth := m.width - 40
	if nameWidth < 10 {
		nameWidth = 10
	}
	name := nameStyle.Render(util.TruncateWidth(p.SessionName, nameWidth))

	return counter + " " + m.spinner.View() + " " + name + " " + mutedStyle.Render(stageLabel(p))
}

func (m Model) renderCounts() string {
	p := m.latest
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	parts := []string{
		statStyle.Render(fmt.Sprintf("%d exported", p.SuccessCount)),
		statStyle.Render(fmt.Sprintf("%d failed", p.FailedCount)),
		statStyle.Render(fmt.Sprintf("%d messages", p.TotalProcessed)),
		mutedStyle.Render(formatElapsed(m.now().Sub(m.start))),
	}
	if m.format != "" {
		parts = append(parts, mutedStyle.Render(m.format))
	}
	return strings.Join(parts, sep)
}

func (m Model) viewSummary() string {
	s := m.summary
	var sb strings.Builder

	switch {
	case s.Canceled:
		sb.WriteString(styles.RenderWarning("Export canceled"))
	case s.Reason != "":
		sb.WriteString(styles.RenderError("Export failed: " + s.Reason))
	default:
		msg := fmt.Sprintf("Exported %d session(s), %d message(s)", s.SuccessCount, s.TotalProcessed)
		if s.FailedCount > 0 {
			msg += fmt.Sprintf("; %d failed", s.FailedCount)
		}
		sb.WriteString(styles.RenderStatus(s.FailedCount == 0, msg))
	}
	if d := s.Duration(); d > 0 {
		sb.WriteString(mutedStyle.Render(" in " + formatElapsed(d)))
	}
	sb.WriteString("\n")

	if s.Reason == "" {
		for _, f := range s.FailedSessions {
			sb.WriteString("  ")
			sb.WriteString(mutedStyle.Render("- " + f))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func stageLabel(p progress.Progress) string {
	switch p.Stage {
	case progress.StageScanning:
		if p.ScannedCount > 0 {
			return fmt.Sprintf("scanning (%d)", p.ScannedCount)
		}
		return "scanning"
	case progress.StageScanned:
		return fmt.Sprintf("scanned %d", p.ScannedCount)
	case progress.StageExporting:
		return fmt.Sprintf("exporting %d/%d", p.ExportedCount-p.TotalProcessed, p.ScannedCount)
	case progress.StageCompleted:
		return styles.StatusIndicators.Success
	case progress.StageFailed:
		return styles.StatusIndicators.Error
	}
	return string(p.Stage)
}

// formatElapsed formats a duration as 4s, 1m05s or 1h02m.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
