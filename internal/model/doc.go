// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions, messages and
// export jobs.
//
// # Key Types
//
//   - Message: one stored chat message, timestamped in epoch seconds
//   - SessionSpec: a session to export plus its captured metadata snapshot
//   - Job: an immutable export request (sessions, format, window, destination)
//   - TimeWindow: all time or an inclusive range of calendar days
//   - Format: output format enumeration (json, html, xlsx, sql)
//
// # Usage
//
//	job := model.NewJob(sessions, model.FormatJSON, model.AllTime(), "/tmp/out")
//	if err := job.Validate(); err != nil {
//	    return err
//	}
//	start, end := job.Window.Bounds(time.Now(), time.Local)
package model
