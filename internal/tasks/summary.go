// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/chatexport/internal/progress"
	"github.com/jeranaias/chatexport/internal/worker"
)

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is what the host shows once a job ends.
type Summary struct {
	JobID          string
	SuccessCount   int
	FailedCount    int
	TotalProcessed int

	// FailedSessions lists "<name> (<reason>)" in session order. A job that
	// ended with Error has exactly one synthetic "export failed (<reason>)".
	FailedSessions []string

	// Reason is set when the job ended with Error.
	Reason string

	// Canceled is set when the job was stopped by Cancel.
	Canceled bool

	StartTime time.Time
	EndTime   time.Time
}

func summaryFromDone(jobID string, d progress.Done) Summary {
	return Summary{
		JobID:          jobID,
		SuccessCount:   d.SuccessCount,
		FailedCount:    d.FailedCount,
		TotalProcessed: d.TotalProcessed,
		FailedSessions: append([]string{}, d.FailedSessions...),
	}
}

func summaryFromError(jobID string, e progress.Error) Summary {
	return Summary{
		JobID:          jobID,
		FailedCount:    1,
		FailedSessions: []string{fmt.Sprintf("export failed (%s)", e.Reason)},
		Reason:         e.Reason,
		Canceled:       e.Reason == worker.ReasonCanceled,
	}
}

// OK reports whether the job ran and every session succeeded.
func (s Summary) OK() bool {
	return s.Reason == "" && s.FailedCount == 0
}

// Duration returns how long the job ran.
func (s Summary) Duration() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Clone returns a copy that shares no slices with s.
func (s Summary) Clone() Summary {
	c := s
	c.FailedSessions = append([]string(nil), s.FailedSessions...)
	return c
}

// String renders the summary for a terminal.
func (s Summary) String() string {
	var sb strings.Builder

	switch {
	case s.Canceled:
		sb.WriteString("Export canceled")
	case s.Reason != "":
		sb.WriteString("Export failed")
	default:
		fmt.Fprintf(&sb, "Exported %d session(s), %d message(s)", s.SuccessCount, s.TotalProcessed)
		if s.FailedCount > 0 {
			fmt.Fprintf(&sb, "; %d failed", s.FailedCount)
		}
	}
	if d := s.Duration(); d > 0 {
		fmt.Fprintf(&sb, " in %.1fs", d.Seconds())
	}
	sb.WriteString("\n")

	for _, f := range s.FailedSessions {
		sb.WriteString("  - ")
		sb.WriteString(f)
		sb.WriteString("\n")
	}
	return sb.String()
}
