// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker runs one export job on its own goroutine.
//
// Spawn copies the job, opens the message store and walks the sessions
// strictly in order. Each session is scanned, reversed to oldest-first and
// handed to the encoder registered for the job's format. A session that
// fails (scan error, no messages in the window, encoder error or panic,
// unknown format) is recorded as "<name> (<reason>)" and the job moves on.
//
// The host only reads from Handle.Events. Only a failure before the first
// session (invalid job, store that cannot be opened) ends the stream with
// progress.Error; otherwise it ends with progress.Done. Cancellation is
// cooperative: it is observed between sessions and inside store and encoder
// calls, the store is closed, and the stream ends with
// progress.Error{Reason: "export canceled"}.
package worker
