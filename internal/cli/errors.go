// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/chatexport/internal/config"
	"github.com/jeranaias/chatexport/internal/storage"
	"github.com/jeranaias/chatexport/internal/tasks"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates every session was exported
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNotFoundError indicates the database or a session was not found
	ExitNotFoundError = 7
	// ExitPartialFailure indicates the job ran but some sessions failed
	ExitPartialFailure = 9
	// ExitCanceled indicates the job was canceled
	ExitCanceled = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string // Flag that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a session id absent from the store.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// JobError carries a finished job's summary when it did not fully succeed.
type JobError struct {
	Summary tasks.Summary
}

func (e *JobError) Error() string {
	switch {
	case e.Summary.Canceled:
		return "export canceled"
	case e.Summary.Reason != "":
		return "export failed: " + e.Summary.Reason
	default:
		return fmt.Sprintf("%d of %d session(s) failed",
			e.Summary.FailedCount, e.Summary.FailedCount+e.Summary.SuccessCount)
	}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the exit code for an error returned by a command.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) || errors.Is(err, storage.ErrNotFound) {
		return ExitNotFoundError
	}

	var cfgErrs config.ValidateErrors
	if errors.As(err, &cfgErrs) {
		return ExitConfigError
	}

	var jobErr *JobError
	if errors.As(err, &jobErr) {
		switch {
		case jobErr.Summary.Canceled:
			return ExitCanceled
		case jobErr.Summary.Reason != "":
			return ExitGeneralError
		default:
			return ExitPartialFailure
		}
	}

	return ExitGeneralError
}
