// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage reads chat sessions and messages from a decrypted local
// message database.
//
// # Key Types
//
//   - Store: one open connection answering time-windowed message queries
//   - Opener: opens a Store for a single export job
//   - SQLiteStore: read-only Store over the SQLite message database
//   - StoreError: query or I/O failure tagged with operation and session
//
// # Usage
//
//	st, err := storage.OpenSQLite(ctx, "/path/to/msg.db", 0, log)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	msgs, err := st.FetchMessages(ctx, "wxid_abc", 0, time.Now().Unix(), nil)
//
// Messages come back most recent first; callers that write files reverse them.
package storage
