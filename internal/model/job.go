// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidJob wraps every job validation failure.
var ErrInvalidJob = errors.New("invalid export job")

// =============================================================================
// EXPORT JOB
// =============================================================================

// Job is one export request. It is built once by the host and handed to a
// worker by value; nothing in it changes while the job runs.
type Job struct {
	ID       string        `json:"id"`
	Sessions []SessionSpec `json:"sessions"`
	Format   Format        `json:"format"`
	Window   TimeWindow    `json:"window"`
	DestDir  string        `json:"destDir"`

	// Streaming asks encoders to write incrementally where they can.
	Streaming bool `json:"streaming,omitempty"`
}

// NewJob creates a job with a fresh id.
func NewJob(sessions []SessionSpec, format Format, window TimeWindow, destDir string) Job {
	return Job{
		ID:       uuid.New().String(),
		Sessions: sessions,
		Format:   format,
		Window:   window,
		DestDir:  destDir,
	}
}

// Clone returns a deep copy so the worker never aliases host memory.
func (j Job) Clone() Job {
	c := j
	c.Sessions = append([]SessionSpec(nil), j.Sessions...)
	return c
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid job field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is(err, ErrInvalidJob) match.
func (e ValidateErrors) Unwrap() error {
	return ErrInvalidJob
}

// Validate checks the job parameters. Format is deliberately not checked:
// an unknown format fails each session at dispatch, not the whole job.
// The destination directory's existence is the caller's responsibility.
func (j Job) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(j.DestDir) == "" {
		errs = append(errs, ValidationError{Field: "destDir", Message: "must not be empty"})
	}

	seen := make(map[string]bool, len(j.Sessions))
	for i, s := range j.Sessions {
		if s.ID == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sessions[%d].id", i),
				Message: "must not be empty",
			})
			continue
		}
		if seen[s.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sessions[%d].id", i),
				Message: fmt.Sprintf("duplicate session %q", s.ID),
			})
		}
		seen[s.ID] = true
	}

	if err := j.Window.Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "window", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
