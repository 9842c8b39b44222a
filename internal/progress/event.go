// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progress

// Stage labels what the worker is doing for the current session.
type Stage string

const (
	StageScanning  Stage = "scanning"
	StageScanned   Stage = "scanned"
	StageExporting Stage = "exporting"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
)

// Wire type tags.
const (
	TypeProgress = "progress"
	TypeDone     = "done"
	TypeError    = "error"
)

// =============================================================================
// EVENTS
// =============================================================================

// Event is one message from a worker to its host. The only implementations
// are Progress, Done and Error.
type Event interface {
	// Type returns the wire tag of the variant.
	Type() string

	event()
}

// Progress reports where the job is. Field names are part of the wire format.
type Progress struct {
	SessionIndex   int    `json:"sessionIndex"`
	SessionName    string `json:"sessionName"`
	ScannedCount   int    `json:"scannedCount"`
	ExportedCount  int    `json:"exportedCount"`
	TotalProcessed int    `json:"totalProcessed"`
	SuccessCount   int    `json:"successCount"`
	FailedCount    int    `json:"failedCount"`
	Scanning       bool   `json:"scanning"`
	Stage          Stage  `json:"stage"`
}

// Done is the terminal event of a job that reached the end of its session
// list, whatever the per-session outcomes were.
type Done struct {
	SuccessCount   int      `json:"successCount"`
	FailedCount    int      `json:"failedCount"`
	TotalProcessed int      `json:"totalProcessed"`
	FailedSessions []string `json:"failedSessions"`
}

// Error is the terminal event of a job that could not run its session loop.
type Error struct {
	Reason string `json:"reason"`
}

func (Progress) Type() string { return TypeProgress }
func (Done) Type() string     { return TypeDone }
func (Error) Type() string    { return TypeError }

func (Progress) event() {}
func (Done) event()     {}
func (Error) event()    {}

// IsTerminal reports whether ev ends the stream.
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case Done, Error:
		return true
	}
	return false
}
