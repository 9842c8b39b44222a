// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progress

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned by Unmarshal for an unrecognized type tag.
var ErrUnknownEvent = errors.New("unknown event type")

// =============================================================================
// WIRE CODEC
// =============================================================================

// Marshal encodes ev as a JSON object whose "type" field names the variant
// and whose other fields are the variant's own.
func Marshal(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case Progress:
		return json.Marshal(struct {
			Type string `json:"type"`
			Progress
		}{TypeProgress, e})
	case Done:
		if e.FailedSessions == nil {
			e.FailedSessions = []string{}
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			Done
		}{TypeDone, e})
	case Error:
		return json.Marshal(struct {
			Type string `json:"type"`
			Error
		}{TypeError, e})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// Unmarshal decodes an object produced by Marshal.
func Unmarshal(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch head.Type {
	case TypeProgress:
		var p Progress
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode progress: %w", err)
		}
		return p, nil
	case TypeDone:
		var d Done
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode done: %w", err)
		}
		return d, nil
	case TypeError:
		var e Error
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, head.Type)
	}
}
