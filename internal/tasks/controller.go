// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/chatexport/internal/logging"
	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/progress"
	"github.com/jeranaias/chatexport/internal/worker"
)

// ErrJobActive is returned by Start while a job is still running.
var ErrJobActive = errors.New("an export job is already running")

// ErrNoJob is returned by Wait before any job was started.
var ErrNoJob = errors.New("no export job started")

// reasonAborted describes a stream that closed without a terminal event,
// which only happens when the host context ends first.
const reasonAborted = "export aborted"

// =============================================================================
// CONTROLLER STATE
// =============================================================================

// State is the controller's lifecycle position.
type State string

const (
	// StateIdle means no job has been started yet.
	StateIdle State = "Idle"

	// StateRunning means a worker is active.
	StateRunning State = "Running"

	// StateCompleted means the last job ended with Done or Error.
	StateCompleted State = "Completed"

	// StateCanceled means the last job was canceled.
	StateCanceled State = "Canceled"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// isValidTransition reports whether from -> to is allowed.
// Valid transitions: Idle/Completed/Canceled -> Running -> Completed/Canceled
func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle, StateCompleted, StateCanceled:
		return to == StateRunning
	case StateRunning:
		return to == StateCompleted || to == StateCanceled
	default:
		return false
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs export jobs one at a time and tracks the latest event.
type Controller struct {
	deps worker.Deps
	opts worker.Options
	log  logrus.FieldLogger

	mu          sync.RWMutex
	state       State
	job         model.Job
	handle      *worker.Handle
	latest      progress.Progress
	hasProgress bool
	summary     *Summary
	done        chan struct{}
	observers   []func(progress.Event)
}

// NewController creates an idle controller whose jobs use deps and opts.
func NewController(deps worker.Deps, opts worker.Options, log logrus.FieldLogger) *Controller {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	if deps.Logger == nil {
		deps.Logger = log
	}
	return &Controller{
		deps:  deps,
		opts:  opts,
		log:   log,
		state: StateIdle,
	}
}

// Subscribe registers fn to receive every event of every later job, on the
// controller's pump goroutine. fn must not block for long.
func (c *Controller) Subscribe(fn func(progress.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Start spawns a worker for job. Only one job may run at a time.
func (c *Controller) Start(ctx context.Context, job model.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return ErrJobActive
	}
	if !isValidTransition(c.state, StateRunning) {
		return fmt.Errorf("invalid state transition from %s to %s", c.state, StateRunning)
	}

	c.state = StateRunning
	c.job = job
	c.latest = progress.Progress{}
	c.hasProgress = false
	c.summary = nil
	c.done = make(chan struct{})
	c.handle = worker.Spawn(ctx, job, c.deps, c.opts)

	c.log.WithFields(logrus.Fields{
		logging.JobKey: job.ID,
		"sessions":     len(job.Sessions),
		"format":       job.Format,
	}).Debug("export job started")

	go c.pump(c.handle, c.done, append([]func(progress.Event){}, c.observers...))
	return nil
}

// pump drains one worker's stream until it closes.
func (c *Controller) pump(h *worker.Handle, done chan struct{}, observers []func(progress.Event)) {
	defer close(done)

	startTime := time.Now()
	terminated := false
	for ev := range h.Events() {
		if progress.IsTerminal(ev) {
			terminated = true
		}
		c.apply(ev, startTime)
		for _, fn := range observers {
			fn(ev)
		}
	}
	h.Wait()

	if !terminated {
		ev := progress.Error{Reason: reasonAborted}
		c.apply(ev, startTime)
		for _, fn := range observers {
			fn(ev)
		}
	}
}

// apply folds one event into the controller state.
func (c *Controller) apply(ev progress.Event, startTime time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case progress.Progress:
		c.latest = e
		c.hasProgress = true

	case progress.Done:
		s := summaryFromDone(c.job.ID, e)
		s.StartTime, s.EndTime = startTime, time.Now()
		c.finish(&s, StateCompleted)

	case progress.Error:
		s := summaryFromError(c.job.ID, e)
		s.StartTime, s.EndTime = startTime, time.Now()
		next := StateCompleted
		if s.Canceled {
			next = StateCanceled
		}
		c.finish(&s, next)
	}
}

// finish records the summary and moves out of Running. Must hold mu.
func (c *Controller) finish(s *Summary, next State) {
	if c.summary != nil {
		return
	}
	c.summary = s
	if isValidTransition(c.state, next) {
		c.state = next
	}
	c.log.WithFields(logrus.Fields{
		logging.JobKey: s.JobID,
		"succeeded":    s.SuccessCount,
		"failed":       s.FailedCount,
		"messages":     s.TotalProcessed,
		"state":        c.state,
	}).Debug("export job ended")
}

// Cancel stops the running job. It returns false when nothing is running.
func (c *Controller) Cancel() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != StateRunning || c.handle == nil {
		return false
	}
	c.handle.Cancel()
	return true
}

// Wait blocks until the current job has ended and returns its summary.
func (c *Controller) Wait(ctx context.Context) (Summary, error) {
	c.mu.RLock()
	done := c.done
	c.mu.RUnlock()

	if done == nil {
		return Summary{}, ErrNoJob
	}
	select {
	case <-done:
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}

	s, _ := c.Summary()
	return s, nil
}

// Done is closed when the current job's stream has been fully drained.
// It is nil before the first Start.
func (c *Controller) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.done
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Latest returns the most recent Progress event of the current job.
func (c *Controller) Latest() (progress.Progress, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.hasProgress
}

// Summary returns the result of the last finished job.
func (c *Controller) Summary() (Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.summary == nil {
		return Summary{}, false
	}
	return c.summary.Clone(), true
}
