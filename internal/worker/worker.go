// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/chatexport/internal/export"
	"github.com/jeranaias/chatexport/internal/logging"
	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/progress"
	"github.com/jeranaias/chatexport/internal/storage"
)

// DefaultBuffer is the event channel capacity when Options.Buffer is zero.
const DefaultBuffer = 64

// ReasonCanceled is the Error reason sent when a job is canceled.
const ReasonCanceled = "export canceled"

// Failure reasons recorded in Done.FailedSessions.
const (
	reasonNoMessages   = "no messages"
	reasonExportFailed = "export failed"
)

// ErrNoOpener is the setup failure for a job spawned without a store.
var ErrNoOpener = errors.New("no message store configured")

// =============================================================================
// DEPENDENCIES AND OPTIONS
// =============================================================================

// Deps are the collaborators a worker drives.
type Deps struct {
	// Opener opens the message store once per job.
	Opener storage.Opener

	// Registry resolves the job's format. Nil means export.DefaultRegistry.
	Registry *export.Registry

	// Logger defaults to a discarding logger.
	Logger logrus.FieldLogger

	// Now stamps output file names and the all-time window. Defaults to time.Now.
	Now func() time.Time

	// Location evaluates date-range windows. Defaults to time.Local.
	Location *time.Location
}

// Options tune event delivery.
type Options struct {
	// Interval is the minimum spacing of throttled progress events.
	// Zero means progress.DefaultInterval; negative disables throttling.
	Interval time.Duration

	// Buffer is the event channel capacity (0 = DefaultBuffer).
	Buffer int
}

func (o Options) interval() time.Duration {
	switch {
	case o.Interval == 0:
		return progress.DefaultInterval
	case o.Interval < 0:
		return 0
	default:
		return o.Interval
	}
}

// =============================================================================
// HANDLE
// =============================================================================

// Handle is the host's view of a running worker: a read-only event stream
// plus the ability to cancel.
type Handle struct {
	events <-chan progress.Event
	cancel context.CancelFunc
	done   chan struct{}
}

// Events returns the event stream. It is closed after the terminal event.
func (h *Handle) Events() <-chan progress.Event {
	return h.events
}

// Cancel asks the worker to stop. The worker finishes the current store or
// encoder call, closes the store and sends Error{"export canceled"}.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the worker goroutine has returned and the store is
// closed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until Done is closed.
func (h *Handle) Wait() {
	<-h.done
}

// =============================================================================
// SPAWN
// =============================================================================

// Spawn starts one goroutine that runs job to completion. The job is copied,
// so the caller may reuse its slices freely. ctx bounds the host's interest:
// once it is done the worker stops and pending sends are abandoned. Use
// Handle.Cancel to stop the job while still receiving its terminal event.
func Spawn(ctx context.Context, job model.Job, deps Deps, opts Options) *Handle {
	if deps.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		deps.Logger = l
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Registry == nil {
		deps.Registry = export.DefaultRegistry(nil)
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	ch := make(chan progress.Event, buffer)
	workCtx, cancel := context.WithCancel(ctx)

	w := &worker{
		job:    job.Clone(),
		deps:   deps,
		sender: progress.NewSender(ctx, ch, opts.interval()),
		log:    deps.Logger.WithField(logging.JobKey, job.ID),
	}
	h := &Handle{
		events: ch,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer cancel()
		w.run(workCtx)
	}()

	return h
}
