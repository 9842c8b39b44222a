// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package testutil builds SQLite message databases for tests and demos.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/storage"
)

// Session is a fixture session with its messages.
type Session struct {
	Spec     model.SessionSpec
	Messages []model.Message
}

// WriteDatabase creates dir/msg.db holding sessions and returns its path.
// Message ids are assigned sequentially when zero.
func WriteDatabase(dir string, sessions []Session) (string, error) {
	path := filepath.Join(dir, "msg.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx := context.Background()
	if err := storage.CreateSchema(ctx, db); err != nil {
		return "", err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var nextID int64 = 1
	for _, s := range sessions {
		kind := s.Spec.Meta.Kind
		if kind == "" {
			kind = model.SessionPrivate
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, display_name, kind, remark, nickname, member_count) VALUES (?, ?, ?, ?, ?, ?)`,
			s.Spec.ID, s.Spec.DisplayName, string(kind), s.Spec.Meta.Remark, s.Spec.Meta.Nickname, s.Spec.Meta.MemberCount,
		); err != nil {
			return "", fmt.Errorf("insert session %s: %w", s.Spec.ID, err)
		}

		for _, m := range s.Messages {
			id := m.ID
			if id == 0 {
				id = nextID
			}
			nextID = id + 1
			kind := m.Kind
			if kind == 0 {
				kind = model.KindText
			}
			isSend := 0
			if m.IsSend {
				isSend = 1
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO messages (id, session_id, sender, sender_name, is_send, kind, content, create_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				id, s.Spec.ID, m.Sender, m.SenderName, isSend, int(kind), m.Content, m.CreateTime,
			); err != nil {
				return "", fmt.Errorf("insert message %d: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return path, nil
}

// TextMessages returns n text messages one minute apart starting at base
// (epoch seconds), oldest first.
func TextMessages(n int, base int64) []model.Message {
	msgs := make([]model.Message, n)
	for i := range msgs {
		msgs[i] = model.Message{
			Sender:     fmt.Sprintf("user%d", i%2),
			SenderName: fmt.Sprintf("User %d", i%2),
			IsSend:     i%2 == 0,
			Kind:       model.KindText,
			Content:    fmt.Sprintf("message %d", i+1),
			CreateTime: base + int64(i)*60,
		}
	}
	return msgs
}
