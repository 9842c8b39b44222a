// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/chatexport/internal/export"
	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/progress"
	"github.com/jeranaias/chatexport/internal/storage"
)

// worker holds the state of one job. Only the worker goroutine touches it.
type worker struct {
	job    model.Job
	deps   Deps
	sender *progress.Sender
	log    logrus.FieldLogger

	// Running aggregates.
	successCount   int
	failedCount    int
	totalProcessed int
	failedSessions []string

	lastStampMs int64
}

// =============================================================================
// JOB ROUTINE
// =============================================================================

// run executes the job and always ends the stream with one terminal event.
func (w *worker) run(ctx context.Context) {
	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.log.WithField("stack", string(debug.Stack())).Errorf("export worker panic: %v", r)
			w.sender.Terminal(progress.Error{Reason: fmt.Sprintf("internal error: %v", r)})
		}
	}()

	if err := w.job.Validate(); err != nil {
		w.fail(err.Error())
		return
	}
	if w.deps.Opener == nil {
		w.fail(ErrNoOpener.Error())
		return
	}

	store, err := w.deps.Opener.Open(ctx)
	if err != nil {
		w.fail(fmt.Sprintf("open message store: %v", err))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			w.log.WithError(err).Warn("close message store")
		}
	}()

	start, end := w.job.Window.Bounds(w.deps.Now(), w.deps.Location)
	enc, encErr := w.deps.Registry.Lookup(w.job.Format)
	if encErr != nil {
		w.log.WithError(encErr).Warn("no encoder for format; every session will fail")
	}

	w.log.WithFields(logrus.Fields{
		"sessions": len(w.job.Sessions),
		"format":   w.job.Format,
		"window":   w.job.Window.String(),
		"dest":     w.job.DestDir,
	}).Info("export started")

	for i, spec := range w.job.Sessions {
		if ctx.Err() != nil {
			w.log.WithField("session_index", i).Info("export canceled")
			w.sender.Terminal(progress.Error{Reason: ReasonCanceled})
			return
		}
		w.exportSession(ctx, store, enc, i, spec, start, end)
	}

	// A cancel that landed during the last session still counts.
	if ctx.Err() != nil {
		w.sender.Terminal(progress.Error{Reason: ReasonCanceled})
		return
	}

	w.log.WithFields(logrus.Fields{
		"succeeded": w.successCount,
		"failed":    w.failedCount,
		"messages":  w.totalProcessed,
		"elapsed":   time.Since(began).Round(time.Millisecond),
	}).Info("export finished")

	w.sender.Terminal(progress.Done{
		SuccessCount:   w.successCount,
		FailedCount:    w.failedCount,
		TotalProcessed: w.totalProcessed,
		FailedSessions: append([]string{}, w.failedSessions...),
	})
}

// fail ends a job that never reached its session loop.
func (w *worker) fail(reason string) {
	w.log.WithField("reason", reason).Error("export setup failed")
	w.sender.Terminal(progress.Error{Reason: reason})
}

// =============================================================================
// SESSION ROUTINE
// =============================================================================

// exportSession runs the scan, encode and bookkeeping steps for one session.
// Every failure is recorded and swallowed; nothing here aborts the job.
func (w *worker) exportSession(ctx context.Context, store storage.Store, enc export.Encoder, index int, spec model.SessionSpec, start, end int64) {
	name := spec.Name()
	log := w.log.WithFields(logrus.Fields{"session_id": spec.ID, "session_index": index})

	w.sender.Boundary(w.snapshot(index, name, progress.StageScanning, true, 0, w.totalProcessed))

	msgs, err := w.fetch(ctx, store, index, name, spec.ID, start, end)
	if err != nil {
		log.WithError(err).Warn("scan failed")
		w.recordFailure(name, err.Error())
		w.sender.Boundary(w.snapshot(index, name, progress.StageFailed, false, 0, w.totalProcessed))
		return
	}
	scanned := len(msgs)
	w.sender.Boundary(w.snapshot(index, name, progress.StageScanned, false, scanned, w.totalProcessed))

	if scanned == 0 {
		log.Info("no messages in window")
		w.recordFailure(name, reasonNoMessages)
		w.sender.Boundary(w.snapshot(index, name, progress.StageFailed, false, 0, w.totalProcessed))
		return
	}

	if enc == nil {
		w.recordFailure(name, reasonExportFailed)
		w.sender.Boundary(w.snapshot(index, name, progress.StageFailed, false, scanned, w.totalProcessed))
		return
	}

	path := export.OutputPath(w.job.DestDir, name, w.stamp(), w.job.Format)
	req := export.Request{
		Session:   spec,
		Messages:  model.Chronological(msgs),
		Path:      path,
		Streaming: w.job.Streaming,
		OnProgress: func(count, total int) {
			w.sender.Throttled(w.snapshot(index, name, progress.StageExporting, false, scanned, w.totalProcessed+count))
		},
	}

	if err := w.encode(ctx, enc, req); err != nil {
		log.WithError(err).WithField("path", path).Warn("export failed")
		w.recordFailure(name, reasonExportFailed)
		w.sender.Boundary(w.snapshot(index, name, progress.StageFailed, false, scanned, w.totalProcessed))
		return
	}

	w.successCount++
	w.totalProcessed += scanned
	log.WithFields(logrus.Fields{"path": path, "messages": scanned}).Info("session exported")
	w.sender.Boundary(w.snapshot(index, name, progress.StageCompleted, false, scanned, w.totalProcessed))
}

// fetch calls the store and turns a panic into an error so one bad session
// cannot take the job down.
func (w *worker) fetch(ctx context.Context, store storage.Store, index int, name, sessionID string, start, end int64) (msgs []model.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &storage.StoreError{Op: "fetch", SessionID: sessionID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return store.FetchMessages(ctx, sessionID, start, end, func(scanned int) {
		w.sender.Throttled(w.snapshot(index, name, progress.StageScanning, true, scanned, w.totalProcessed))
	})
}

// encode calls the encoder, recovering panics as failures.
func (w *worker) encode(ctx context.Context, enc export.Encoder, req export.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encoder panic: %v", r)
		}
	}()
	return enc.Encode(ctx, req)
}

func (w *worker) recordFailure(name, reason string) {
	w.failedCount++
	w.failedSessions = append(w.failedSessions, fmt.Sprintf("%s (%s)", name, reason))
}

func (w *worker) snapshot(index int, name string, stage progress.Stage, scanning bool, scanned, exported int) progress.Progress {
	return progress.Progress{
		SessionIndex:   index,
		SessionName:    name,
		ScannedCount:   scanned,
		ExportedCount:  exported,
		TotalProcessed: w.totalProcessed,
		SuccessCount:   w.successCount,
		FailedCount:    w.failedCount,
		Scanning:       scanning,
		Stage:          stage,
	}
}

// stamp returns a strictly increasing millisecond timestamp for file names.
func (w *worker) stamp() int64 {
	ms := w.deps.Now().UnixMilli()
	if ms <= w.lastStampMs {
		ms = w.lastStampMs + 1
	}
	w.lastStampMs = ms
	return ms
}
