// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope of every non-streaming --json output.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is when the response was generated (RFC3339, UTC)
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// SessionData is one row of `sessions --json`.
type SessionData struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind,omitempty"`
	MessageCount int    `json:"messageCount"`
	LastActive   string `json:"lastActive,omitempty"`
}

// SummaryData is the final line of `export --json`.
type SummaryData struct {
	Type           string   `json:"type"`
	JobID          string   `json:"jobId"`
	SuccessCount   int      `json:"successCount"`
	FailedCount    int      `json:"failedCount"`
	TotalProcessed int      `json:"totalProcessed"`
	FailedSessions []string `json:"failedSessions"`
	Canceled       bool     `json:"canceled"`
	DurationMs     int64    `json:"durationMs"`
}
