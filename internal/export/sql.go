// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/chatexport/internal/model"
)

// sqlBatchSize is how many rows go into one INSERT statement.
const sqlBatchSize = 100

// =============================================================================
// SQL ENCODER
// =============================================================================

// SQLEncoder writes a session as a SQLite-compatible script: one session row
// plus the messages, wrapped in a single transaction.
type SQLEncoder struct {
	options *Options
}

// NewSQLEncoder creates a new SQL encoder.
func NewSQLEncoder(opts *Options) *SQLEncoder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &SQLEncoder{options: opts}
}

// Format implements Encoder.
func (e *SQLEncoder) Format() model.Format {
	return model.FormatSQL
}

// Encode implements Encoder. The script is always streamed.
func (e *SQLEncoder) Encode(ctx context.Context, req Request) error {
	return writeAtomic(req.Path, func(w *bufio.Writer) error {
		return e.write(ctx, w, req)
	})
}

func (e *SQLEncoder) write(ctx context.Context, w *bufio.Writer, req Request) error {
	s := req.Session

	fmt.Fprintf(w, "-- chatexport: %s\n", strings.ReplaceAll(s.Name(), "\n", " "))
	fmt.Fprintf(w, "-- exported at %s, %d messages\n\n", e.options.now().Format(time.RFC3339), len(req.Messages))

	w.WriteString("BEGIN TRANSACTION;\n\n")
	w.WriteString(`CREATE TABLE IF NOT EXISTS session (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    kind TEXT,
    member_count INTEGER
);
`)
	w.WriteString(`CREATE TABLE IF NOT EXISTS messages (
    local_id INTEGER PRIMARY KEY,
    create_time INTEGER NOT NULL,
    sender TEXT,
    sender_name TEXT,
    is_send INTEGER NOT NULL,
    kind INTEGER NOT NULL,
    content TEXT
);

`)
	fmt.Fprintf(w, "INSERT INTO session (id, display_name, kind, member_count) VALUES (%s, %s, %s, %d);\n\n",
		sqlQuote(s.ID), sqlQuote(s.Name()), sqlQuote(string(s.Meta.Kind)), s.Meta.MemberCount)

	for i, m := range req.Messages {
		if err := checkCtx(ctx, i); err != nil {
			return err
		}
		if i%sqlBatchSize == 0 {
			if i > 0 {
				w.WriteString(";\n")
			}
			w.WriteString("INSERT INTO messages (local_id, create_time, sender, sender_name, is_send, kind, content) VALUES\n")
		} else {
			w.WriteString(",\n")
		}
		isSend := 0
		if m.IsSend {
			isSend = 1
		}
		fmt.Fprintf(w, "  (%d, %d, %s, %s, %d, %d, %s)",
			m.ID, m.CreateTime, sqlQuote(m.Sender), sqlQuote(m.DisplaySender()), isSend, int(m.Kind), sqlQuote(m.Content))
		req.report(i + 1)
	}
	if len(req.Messages) > 0 {
		w.WriteString(";\n")
	}

	_, err := w.WriteString("\nCOMMIT;\n")
	return err
}

// sqlQuote renders s as a single-quoted SQL string literal.
func sqlQuote(s string) string {
	if strings.ContainsRune(s, 0) {
		s = strings.ReplaceAll(s, "\x00", "")
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
