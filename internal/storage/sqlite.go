// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/chatexport/internal/model"
)

// DefaultReportEvery is how many rows are scanned between progress callbacks.
const DefaultReportEvery = 200

// =============================================================================
// SQLITE OPENER
// =============================================================================

// SQLiteOpener opens the message database at Path read-only.
type SQLiteOpener struct {
	// Path is the decrypted database file.
	Path string

	// ReportEvery controls scan progress granularity (0 = DefaultReportEvery).
	ReportEvery int

	// Logger receives debug output; nil disables logging.
	Logger logrus.FieldLogger
}

// Open implements Opener.
func (o SQLiteOpener) Open(ctx context.Context) (Store, error) {
	return OpenSQLite(ctx, o.Path, o.ReportEvery, o.Logger)
}

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore is a read-only Store backed by one SQLite connection.
type SQLiteStore struct {
	db          *sql.DB
	reportEvery int
	log         logrus.FieldLogger

	closeOnce sync.Once
	closeErr  error
}

// readOnlyDSN turns a file path into a read-only SQLite URI. The path is
// percent-escaped so '#', '?' and '%' stay part of the file name.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if filepath.VolumeName(abs) != "" {
		p = "/" + p
	}
	u := &url.URL{Scheme: "file", OmitHost: true, Path: p, RawQuery: "mode=ro"}
	return u.String(), nil
}

// OpenSQLite opens path read-only and verifies the connection.
func OpenSQLite(ctx context.Context, path string, reportEvery int, log logrus.FieldLogger) (*SQLiteStore, error) {
	if path == "" {
		return nil, &StoreError{Op: "open", Err: fmt.Errorf("%w: empty path", ErrNotFound)}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StoreError{Op: "open", Err: fmt.Errorf("%w: %s", ErrNotFound, path)}
		}
		return nil, &StoreError{Op: "open", Err: err}
	}
	if info.IsDir() {
		return nil, &StoreError{Op: "open", Err: fmt.Errorf("%s is a directory", path)}
	}

	dsn, err := readOnlyDSN(path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	// One job, one connection. SQLite gains nothing from a pool here.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Err: err}
	}

	if reportEvery <= 0 {
		reportEvery = DefaultReportEvery
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}

	return &SQLiteStore{
		db:          db,
		reportEvery: reportEvery,
		log:         log.WithField("db", path),
	}, nil
}

// FetchMessages implements Store.
func (s *SQLiteStore) FetchMessages(ctx context.Context, sessionID string, start, end int64, onProgress ProgressFunc) ([]model.Message, error) {
	began := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, sender, sender_name, is_send, kind, content, create_time
		FROM messages
		WHERE session_id = ? AND create_time BETWEEN ? AND ?
		ORDER BY create_time DESC, id DESC`,
		sessionID, start, end)
	if err != nil {
		return nil, &StoreError{Op: "fetch", SessionID: sessionID, Err: err}
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var isSend int
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.SenderName, &isSend, &m.Kind, &m.Content, &m.CreateTime); err != nil {
			return nil, &StoreError{Op: "scan", SessionID: sessionID, Err: err}
		}
		m.IsSend = isSend != 0
		msgs = append(msgs, m)

		if onProgress != nil && len(msgs)%s.reportEvery == 0 {
			onProgress(len(msgs))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "fetch", SessionID: sessionID, Err: err}
	}
	if onProgress != nil && len(msgs)%s.reportEvery != 0 {
		onProgress(len(msgs))
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"rows":       len(msgs),
		"elapsed":    time.Since(began),
	}).Debug("scanned messages")

	return msgs, nil
}

// ListSessions returns a metadata snapshot of every session, most recently
// active first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]model.SessionSpec, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.display_name, s.kind, s.remark, s.nickname, s.member_count,
		       COUNT(m.id), COALESCE(MAX(m.create_time), 0)
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY 8 DESC, s.id ASC`)
	if err != nil {
		return nil, &StoreError{Op: "list sessions", Err: err}
	}
	defer rows.Close()

	var out []model.SessionSpec
	for rows.Next() {
		var spec model.SessionSpec
		var kind string
		var lastActive int64
		if err := rows.Scan(&spec.ID, &spec.DisplayName, &kind, &spec.Meta.Remark, &spec.Meta.Nickname,
			&spec.Meta.MemberCount, &spec.Meta.MessageCount, &lastActive); err != nil {
			return nil, &StoreError{Op: "list sessions", Err: err}
		}
		spec.Meta.Kind = model.SessionKind(kind)
		if lastActive > 0 {
			spec.Meta.LastActive = time.Unix(lastActive, 0)
		}
		out = append(out, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list sessions", Err: err}
	}
	return out, nil
}

// Close releases the connection. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
		s.log.Debug("message store closed")
	})
	return s.closeErr
}
