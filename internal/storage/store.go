// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/chatexport/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when the database file does not exist.
var ErrNotFound = errors.New("message database not found")

// StoreError wraps an I/O or query failure with the operation that caused it.
type StoreError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *StoreError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// =============================================================================
// STORE CONTRACT
// =============================================================================

// ProgressFunc receives the number of rows scanned so far. It may be called
// any number of times, including zero.
type ProgressFunc func(scanned int)

// Store answers time-windowed message queries. One Store is one open
// connection; it is owned by a single export job and closed when the job ends.
type Store interface {
	// FetchMessages returns the messages of sessionID whose create time lies
	// in [start, end] (epoch seconds, inclusive), most recent first.
	FetchMessages(ctx context.Context, sessionID string, start, end int64, onProgress ProgressFunc) ([]model.Message, error)

	io.Closer
}

// Opener opens a Store for one job. A failure here aborts the whole job.
type Opener interface {
	Open(ctx context.Context) (Store, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Store, error)

// Open calls f(ctx).
func (f OpenerFunc) Open(ctx context.Context) (Store, error) {
	return f(ctx)
}
