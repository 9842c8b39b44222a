// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// SessionKind distinguishes one-to-one chats from group chats.
type SessionKind string

const (
	SessionPrivate SessionKind = "private"
	SessionGroup   SessionKind = "group"
)

// SessionMeta is the metadata snapshot captured when the session was
// selected. Exports use it as-is and never re-read it from the store.
type SessionMeta struct {
	Kind         SessionKind `json:"kind,omitempty"`
	Remark       string      `json:"remark,omitempty"`
	Nickname     string      `json:"nickname,omitempty"`
	MemberCount  int         `json:"memberCount,omitempty"`
	MessageCount int         `json:"messageCount,omitempty"`
	LastActive   time.Time   `json:"lastActive,omitempty"`
}

// SessionSpec identifies one session to export.
type SessionSpec struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"displayName,omitempty"`
	Meta        SessionMeta `json:"meta"`
}

// Name returns the display name, falling back to remark, nickname, then id.
func (s SessionSpec) Name() string {
	switch {
	case s.DisplayName != "":
		return s.DisplayName
	case s.Meta.Remark != "":
		return s.Meta.Remark
	case s.Meta.Nickname != "":
		return s.Meta.Nickname
	default:
		return s.ID
	}
}
