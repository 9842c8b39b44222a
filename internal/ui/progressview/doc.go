// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package progressview renders a running export job in the terminal.
//
// The model is fed from the host side: every worker event is delivered as an
// EventMsg (usually via tea.Program.Send from a Controller subscriber) and the
// final summary as a SummaryMsg, after which the program quits. Ctrl+C asks
// the host to cancel the job once; a second Ctrl+C quits the view.
package progressview
