// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package progress defines the events an export worker sends to its host
// and the Sender that delivers them.
//
// A job's stream is zero or more Progress events followed by exactly one
// terminal event, Done or Error, after which the channel is closed.
//
// # Throttling
//
// Scan and encode callbacks can fire thousands of times per second. The
// Sender forwards at most one Throttled event per interval (120 ms by
// default) and always flushes the most recent values when the window
// elapses. Boundary events (session start, scan complete, session end) and
// the terminal event skip the throttle.
//
// # Wire Format
//
// Marshal and Unmarshal use a JSON object tagged with "type":
//
//	{"type":"progress","sessionIndex":0,"sessionName":"Alice",...}
//	{"type":"done","successCount":3,"failedCount":1,...}
//	{"type":"error","reason":"open message store: ..."}
package progress
