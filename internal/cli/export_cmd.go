// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatexport/internal/config"
	"github.com/jeranaias/chatexport/internal/export"
	"github.com/jeranaias/chatexport/internal/logging"
	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/storage"
	"github.com/jeranaias/chatexport/internal/tasks"
	"github.com/jeranaias/chatexport/internal/util"
	"github.com/jeranaias/chatexport/internal/worker"
)

const dateLayout = "2006-01-02"

// lowDiskSpace is the free space below which export warns before starting.
const lowDiskSpace = 64 << 20

type exportFlags struct {
	db       string
	format   string
	out      string
	from     string
	to       string
	sessions []string
	all      bool
	stream   bool
	jsonOut  bool
	noTUI    bool
}

// newExportCmd creates the export command
func newExportCmd(a *app) *cobra.Command {
	f := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export chat sessions to files",
		Long: `Export one or more chat sessions into the output directory.

Each session becomes one file named <session>_<unix-ms>.<ext>. Sessions are
exported one at a time; a session that fails (store error, no messages in the
window, encoder error) is listed in the summary and the job continues.

Formats: json, html, xlsx, sql

Examples:
  chatexport export --db msg.db --all
  chatexport export --db msg.db -s wxid_abc -s 1234@chatroom -f html
  chatexport export --db msg.db --all --from 2024-01-01 --to 2024-03-31
  chatexport export --db msg.db --all --json | jq .type`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.db, "db", "", "message database (overrides store.path)")
	flags.StringVarP(&f.format, "format", "f", "", "output format: json, html, xlsx, sql")
	flags.StringVarP(&f.out, "out", "o", "", "output directory (created if missing)")
	flags.StringArrayVarP(&f.sessions, "session", "s", nil, "session id to export (repeatable)")
	flags.BoolVar(&f.all, "all", false, "export every session in the database")
	flags.StringVar(&f.from, "from", "", "first day to include, "+dateLayout)
	flags.StringVar(&f.to, "to", "", "last day to include, "+dateLayout+" (default today)")
	flags.BoolVar(&f.stream, "stream", false, "write files incrementally")
	flags.BoolVar(&f.jsonOut, "json", false, "print each progress event as a JSON line")
	flags.BoolVar(&f.noTUI, "no-tui", false, "never show the interactive progress view")

	return cmd
}

func runExport(cmd *cobra.Command, a *app, f *exportFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := a.cfg.Clone()
	applyExportFlags(cmd, cfg, f)

	job, err := buildJob(ctx, a, cfg, f, time.Now())
	if err != nil {
		return err
	}

	deps := worker.Deps{
		Opener: storage.SQLiteOpener{
			Path:        cfg.Store.Path,
			ReportEvery: cfg.Store.ReportEvery,
			Logger:      a.log,
		},
		Registry: export.DefaultRegistry(&export.Options{
			Theme:  cfg.Export.HTMLTheme,
			Pretty: cfg.Export.PrettyJSON,
		}),
		Logger: a.log,
	}
	opts := worker.Options{
		Interval: cfg.Export.ThrottleInterval(),
		Buffer:   cfg.Export.Buffer,
	}
	ctrl := tasks.NewController(deps, opts, a.log)

	stop := cancelOnSignal(ctrl)
	defer stop()

	drv := pickDriver(cmd, a, f)
	summary, err := drv.run(ctx, ctrl, job)
	if err != nil {
		return err
	}
	if !summary.OK() {
		return &JobError{Summary: summary}
	}
	return nil
}

// applyExportFlags lets explicitly set flags override configuration.
func applyExportFlags(cmd *cobra.Command, cfg *config.Config, f *exportFlags) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Store.Path = f.db
	}
	if flags.Changed("format") {
		cfg.Export.Format = f.format
	}
	if flags.Changed("out") {
		cfg.Export.OutputDir = f.out
	}
	if flags.Changed("stream") {
		cfg.Export.Streaming = f.stream
	}
}

// buildJob validates the request, reads the session list from the store and
// returns the job to run.
func buildJob(ctx context.Context, a *app, cfg *config.Config, f *exportFlags, now time.Time) (model.Job, error) {
	if cfg.Store.Path == "" {
		return model.Job{}, &ValidationError{
			Field:   "--db",
			Reason:  "message database path is required",
			Example: "chatexport export --db msg.db --all",
		}
	}

	format := model.ParseFormat(cfg.Export.Format)
	if !format.Known() {
		return model.Job{}, &ValidationError{
			Field:  "--format",
			Value:  cfg.Export.Format,
			Reason: "must be one of json, html, xlsx, sql",
		}
	}

	window, err := parseWindow(f.from, f.to, now, time.Local)
	if err != nil {
		return model.Job{}, err
	}

	switch {
	case f.all && len(f.sessions) > 0:
		return model.Job{}, &ValidationError{Field: "--session", Reason: "cannot be combined with --all"}
	case !f.all && len(f.sessions) == 0:
		return model.Job{}, &ValidationError{
			Field:   "--session",
			Reason:  "name at least one session or pass --all",
			Example: "chatexport export --db msg.db -s wxid_abc",
		}
	}

	store, err := storage.OpenSQLite(ctx, cfg.Store.Path, cfg.Store.ReportEvery, a.log)
	if err != nil {
		return model.Job{}, err
	}
	listed, err := store.ListSessions(ctx)
	store.Close()
	if err != nil {
		return model.Job{}, err
	}

	specs, err := selectSessions(listed, f.sessions, f.all)
	if err != nil {
		return model.Job{}, err
	}
	if len(specs) == 0 {
		return model.Job{}, fmt.Errorf("database %s has no sessions", cfg.Store.Path)
	}

	if err := os.MkdirAll(cfg.Export.OutputDir, 0o755); err != nil {
		return model.Job{}, fmt.Errorf("create output directory: %w", err)
	}
	if free, err := util.FreeDiskSpace(cfg.Export.OutputDir); err == nil && free < lowDiskSpace {
		a.log.WithField("path", cfg.Export.OutputDir).WithField("free_bytes", free).
			Warn("output directory is low on disk space")
	}

	job := model.NewJob(specs, format, window, cfg.Export.OutputDir)
	job.Streaming = cfg.Export.Streaming
	if err := job.Validate(); err != nil {
		return model.Job{}, err
	}

	a.log.WithField(logging.JobKey, job.ID).WithField("sessions", len(specs)).
		WithField("format", format).WithField("window", window.String()).
		Info("export job prepared")
	return job, nil
}

// parseWindow turns --from/--to into a time window. No flags means all time;
// --from alone runs through today.
func parseWindow(from, to string, now time.Time, loc *time.Location) (model.TimeWindow, error) {
	if from == "" && to == "" {
		return model.AllTime(), nil
	}
	if from == "" {
		return model.TimeWindow{}, &ValidationError{
			Field:   "--from",
			Reason:  "required when --to is set",
			Example: "--from 2024-01-01 --to 2024-03-31",
		}
	}

	start, err := time.ParseInLocation(dateLayout, from, loc)
	if err != nil {
		return model.TimeWindow{}, &ValidationError{Field: "--from", Value: from, Reason: "expected " + dateLayout}
	}
	end := now.In(loc)
	if to != "" {
		end, err = time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return model.TimeWindow{}, &ValidationError{Field: "--to", Value: to, Reason: "expected " + dateLayout}
		}
	}

	w := model.DateRange(start, end)
	if err := w.Validate(); err != nil {
		return model.TimeWindow{}, &ValidationError{Field: "--from/--to", Reason: err.Error()}
	}
	return w, nil
}

// selectSessions picks the requested sessions from the store's list, in the
// order they were requested. Duplicates are dropped.
func selectSessions(listed []model.SessionSpec, ids []string, all bool) ([]model.SessionSpec, error) {
	if all {
		return listed, nil
	}

	byID := make(map[string]model.SessionSpec, len(listed))
	for _, s := range listed {
		byID[s.ID] = s
	}

	seen := make(map[string]bool, len(ids))
	out := make([]model.SessionSpec, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		spec, ok := byID[id]
		if !ok {
			return nil, &NotFoundError{Resource: "session", ID: id}
		}
		out = append(out, spec)
	}
	return out, nil
}

// cancelOnSignal cancels the running job on SIGINT/SIGTERM so the worker
// still delivers its terminal event. The returned func stops listening.
func cancelOnSignal(ctrl *tasks.Controller) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigCh:
				ctrl.Cancel()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
