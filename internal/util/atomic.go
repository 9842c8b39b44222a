// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFileClosed is returned when writing to an AtomicFile after Commit or Abort.
var ErrFileClosed = errors.New("atomic file already closed")

// =============================================================================
// ATOMIC FILE
// =============================================================================

// AtomicFile is a write handle whose content only becomes visible at the
// target path once Commit succeeds. Until then data lives in a temporary
// file in the same directory, so the final rename stays on one filesystem.
//
// Either Commit or Abort must be called. Abort after Commit is a no-op, which
// makes `defer f.Abort()` safe on every path.
type AtomicFile struct {
	f      *os.File
	path   string
	perm   os.FileMode
	closed bool
}

// CreateAtomic opens a temporary file next to path. The parent directory must
// already exist; creating output directories is the caller's job.
func CreateAtomic(path string, perm os.FileMode) (*AtomicFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(absPath), ".tmp-"+filepath.Base(absPath)+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	return &AtomicFile{f: f, path: absPath, perm: perm}, nil
}

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.closed {
		return 0, ErrFileClosed
	}
	return a.f.Write(p)
}

// Commit syncs the data, closes the temp file and renames it over the target.
// RELIABILITY: fsync before rename so a crash leaves either nothing or the
// complete file, never a truncated one.
func (a *AtomicFile) Commit() error {
	if a.closed {
		return ErrFileClosed
	}
	a.closed = true
	tempPath := a.f.Name()

	if err := a.f.Sync(); err != nil {
		a.f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}

	// Close before rename - required on some systems (Windows)
	if err := a.f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, a.perm); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if err := os.Rename(tempPath, a.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Abort discards everything written so far.
func (a *AtomicFile) Abort() {
	if a.closed {
		return
	}
	a.closed = true
	a.f.Close()
	os.Remove(a.f.Name())
}

// =============================================================================
// ONE-SHOT WRITES
// =============================================================================

// AtomicWriteFile writes data to path atomically: temp file, fsync, rename.
// Unlike CreateAtomic it creates the parent directory when missing.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	f, err := CreateAtomic(path, perm)
	if err != nil {
		return err
	}
	defer f.Abort()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return f.Commit()
}
