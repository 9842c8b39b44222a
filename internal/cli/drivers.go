// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/progress"
	"github.com/jeranaias/chatexport/internal/tasks"
	"github.com/jeranaias/chatexport/internal/ui/progressview"
)

// =============================================================================
// DRIVERS
// =============================================================================

// driver hosts one job: it consumes the controller's events and returns the
// final summary.
type driver interface {
	run(ctx context.Context, ctrl *tasks.Controller, job model.Job) (tasks.Summary, error)
}

func pickDriver(cmd *cobra.Command, a *app, f *exportFlags) driver {
	switch {
	case f.jsonOut:
		return &jsonDriver{out: cmd.OutOrStdout()}
	case !f.noTUI && isTerminalWriter(cmd.ErrOrStderr()):
		return &tuiDriver{out: cmd.ErrOrStderr(), log: a.log}
	default:
		return &plainDriver{out: cmd.OutOrStdout(), log: a.log}
	}
}

// startAndWait runs job on ctrl and waits for its summary. Wait ignores ctx:
// once the host context ends the controller still closes the job out.
func startAndWait(ctx context.Context, ctrl *tasks.Controller, job model.Job) (tasks.Summary, error) {
	if err := ctrl.Start(ctx, job); err != nil {
		return tasks.Summary{}, err
	}
	return ctrl.Wait(context.Background())
}

// =============================================================================
// PLAIN DRIVER
// =============================================================================

// plainDriver logs session boundaries and prints the summary.
type plainDriver struct {
	out io.Writer
	log logrus.FieldLogger
}

func (d *plainDriver) run(ctx context.Context, ctrl *tasks.Controller, job model.Job) (tasks.Summary, error) {
	total := len(job.Sessions)
	ctrl.Subscribe(func(ev progress.Event) {
		p, ok := ev.(progress.Progress)
		if !ok {
			return
		}
		entry := d.log.WithFields(logrus.Fields{
			"session":  fmt.Sprintf("%d/%d", p.SessionIndex+1, total),
			"name":     p.SessionName,
			"scanned":  p.ScannedCount,
			"exported": p.ExportedCount,
		})
		switch p.Stage {
		case progress.StageCompleted:
			entry.Info("session exported")
		case progress.StageFailed:
			entry.Warn("session failed")
		default:
			entry.Debug(string(p.Stage))
		}
	})

	s, err := startAndWait(ctx, ctrl, job)
	if err != nil {
		return s, err
	}
	fmt.Fprint(d.out, s.String())
	return s, nil
}

// =============================================================================
// JSON DRIVER
// =============================================================================

// jsonDriver prints every event as one wire-format JSON line, then a
// summary line.
type jsonDriver struct {
	mu  sync.Mutex
	out io.Writer
}

func (d *jsonDriver) writeLine(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out.Write(data)
	io.WriteString(d.out, "\n")
}

func (d *jsonDriver) run(ctx context.Context, ctrl *tasks.Controller, job model.Job) (tasks.Summary, error) {
	ctrl.Subscribe(func(ev progress.Event) {
		data, err := progress.Marshal(ev)
		if err != nil {
			return
		}
		d.writeLine(data)
	})

	s, err := startAndWait(ctx, ctrl, job)
	if err != nil {
		return s, err
	}

	failed := s.FailedSessions
	if failed == nil {
		failed = []string{}
	}
	data, err := json.Marshal(SummaryData{
		Type:           "summary",
		JobID:          s.JobID,
		SuccessCount:   s.SuccessCount,
		FailedCount:    s.FailedCount,
		TotalProcessed: s.TotalProcessed,
		FailedSessions: failed,
		Canceled:       s.Canceled,
		DurationMs:     s.Duration().Milliseconds(),
	})
	if err != nil {
		return s, fmt.Errorf("encode summary: %w", err)
	}
	d.writeLine(data)
	return s, nil
}

// =============================================================================
// TUI DRIVER
// =============================================================================

// tuiDriver shows the bubbletea progress view on a terminal.
type tuiDriver struct {
	out io.Writer
	log *logrus.Logger
}

func (d *tuiDriver) run(ctx context.Context, ctrl *tasks.Controller, job model.Job) (tasks.Summary, error) {
	// Log lines would tear the view; keep only what happens after it closes.
	if d.log != nil {
		prev := d.log.Out
		d.log.SetOutput(io.Discard)
		defer d.log.SetOutput(prev)
	}

	view := progressview.New(len(job.Sessions), job.Format.String(), ctrl.Cancel)
	p := tea.NewProgram(view, tea.WithOutput(d.out), tea.WithContext(ctx))

	ctrl.Subscribe(func(ev progress.Event) {
		p.Send(progressview.EventMsg{Event: ev})
	})
	if err := ctrl.Start(ctx, job); err != nil {
		return tasks.Summary{}, err
	}

	go func() {
		s, err := ctrl.Wait(context.Background())
		if err == nil {
			p.Send(progressview.SummaryMsg{Summary: s})
		}
	}()

	if _, err := p.Run(); err != nil {
		// The view is gone; stop the job rather than run it blind.
		ctrl.Cancel()
	}
	return ctrl.Wait(context.Background())
}
