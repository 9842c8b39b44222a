// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions, messages and
// export jobs.
package model

import (
	"time"
)

// =============================================================================
// MESSAGE KIND
// =============================================================================

// Kind is the content type of a stored message.
type Kind int

const (
	KindText     Kind = 1
	KindImage    Kind = 3
	KindVoice    Kind = 34
	KindCard     Kind = 42
	KindVideo    Kind = 43
	KindEmoji    Kind = 47
	KindLocation Kind = 48
	KindLink     Kind = 49
	KindCall     Kind = 50
	KindSystem   Kind = 10000
	KindRecall   Kind = 10002
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindVoice:
		return "voice"
	case KindCard:
		return "card"
	case KindVideo:
		return "video"
	case KindEmoji:
		return "emoji"
	case KindLocation:
		return "location"
	case KindLink:
		return "link"
	case KindCall:
		return "call"
	case KindSystem:
		return "system"
	case KindRecall:
		return "recall"
	default:
		return "other"
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one stored chat message. It belongs to exactly one session.
type Message struct {
	ID         int64  `json:"id"`
	SessionID  string `json:"sessionId"`
	Sender     string `json:"sender"`
	SenderName string `json:"senderName,omitempty"`
	IsSend     bool   `json:"isSend"`
	Kind       Kind   `json:"kind"`
	Content    string `json:"content"`

	// CreateTime is in epoch seconds, as stored.
	CreateTime int64 `json:"createTime"`
}

// Time returns CreateTime as a local time.Time.
func (m Message) Time() time.Time {
	return time.Unix(m.CreateTime, 0)
}

// DisplaySender returns the best available label for the sender.
func (m Message) DisplaySender() string {
	if m.IsSend {
		return "me"
	}
	if m.SenderName != "" {
		return m.SenderName
	}
	if m.Sender != "" {
		return m.Sender
	}
	return m.SessionID
}

// Chronological returns a copy of msgs in reverse order. The store yields
// messages most-recent-first; export files are written oldest-first.
func Chronological(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
