// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the layout of the decrypted message database this package reads.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id           TEXT PRIMARY KEY,
    display_name TEXT NOT NULL DEFAULT '',
    kind         TEXT NOT NULL DEFAULT 'private',
    remark       TEXT NOT NULL DEFAULT '',
    nickname     TEXT NOT NULL DEFAULT '',
    member_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
    id          INTEGER PRIMARY KEY,
    session_id  TEXT NOT NULL,
    sender      TEXT NOT NULL DEFAULT '',
    sender_name TEXT NOT NULL DEFAULT '',
    is_send     INTEGER NOT NULL DEFAULT 0,
    kind        INTEGER NOT NULL DEFAULT 1,
    content     TEXT NOT NULL DEFAULT '',
    create_time INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session_time ON messages(session_id, create_time);
`

// CreateSchema creates the tables on a writable database. The exporter
// itself never writes; this exists for fixtures and import tooling.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
