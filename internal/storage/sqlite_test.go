// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/storage"
	"github.com/jeranaias/chatexport/internal/storage/testutil"
)

const base = int64(1_700_000_000)

func newFixture(t *testing.T) string {
	t.Helper()
	path, err := testutil.WriteDatabase(t.TempDir(), []testutil.Session{
		{
			Spec:     model.SessionSpec{ID: "alice", DisplayName: "Alice"},
			Messages: testutil.TextMessages(450, base),
		},
		{
			Spec: model.SessionSpec{ID: "team", DisplayName: "Team", Meta: model.SessionMeta{
				Kind: model.SessionGroup, MemberCount: 5,
			}},
			Messages: testutil.TextMessages(3, base-100_000),
		},
		{
			Spec: model.SessionSpec{ID: "quiet", DisplayName: "Quiet"},
		},
	})
	require.NoError(t, err)
	return path
}

func TestOpenSQLite_MissingFile(t *testing.T) {
	_, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nope.db"), 0, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	var se *storage.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "open", se.Op)
}

func TestOpenSQLite_Directory(t *testing.T) {
	_, err := storage.OpenSQLite(context.Background(), t.TempDir(), 0, nil)
	assert.Error(t, err)
}

func TestOpenSQLite_URICharactersInPath(t *testing.T) {
	for _, name := range []string{"chat#1.db", "what?.db", "50%off.db", "a b.db"} {
		t.Run(name, func(t *testing.T) {
			src := newFixture(t)
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			require.NoError(t, os.Rename(src, path))

			st, err := storage.OpenSQLite(context.Background(), path, 0, nil)
			require.NoError(t, err)
			msgs, err := st.FetchMessages(context.Background(), "team", 0, base*2, nil)
			require.NoError(t, err)
			assert.Len(t, msgs, 3)
			require.NoError(t, st.Close())

			// Nothing may be created next to the real database.
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			for _, e := range entries {
				assert.True(t, strings.HasPrefix(e.Name(), name), "unexpected file %q", e.Name())
			}
		})
	}
}

func TestFetchMessages_NewestFirstWithinWindow(t *testing.T) {
	st, err := storage.OpenSQLite(context.Background(), newFixture(t), 0, nil)
	require.NoError(t, err)
	defer st.Close()

	// Messages are one minute apart; this window holds messages 11..20.
	start := base + 10*60
	end := base + 19*60
	msgs, err := st.FetchMessages(context.Background(), "alice", start, end, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 10)

	assert.Equal(t, "message 20", msgs[0].Content)
	assert.Equal(t, "message 11", msgs[9].Content)
	for i := 1; i < len(msgs); i++ {
		assert.GreaterOrEqual(t, msgs[i-1].CreateTime, msgs[i].CreateTime)
	}
	assert.Equal(t, "alice", msgs[0].SessionID)
}

func TestFetchMessages_ReportsProgress(t *testing.T) {
	st, err := storage.OpenSQLite(context.Background(), newFixture(t), 100, nil)
	require.NoError(t, err)
	defer st.Close()

	var reports []int
	msgs, err := st.FetchMessages(context.Background(), "alice", 0, base*2, func(n int) {
		reports = append(reports, n)
	})
	require.NoError(t, err)
	require.Len(t, msgs, 450)
	assert.Equal(t, []int{100, 200, 300, 400, 450}, reports)
}

func TestFetchMessages_EmptySession(t *testing.T) {
	st, err := storage.OpenSQLite(context.Background(), newFixture(t), 0, nil)
	require.NoError(t, err)
	defer st.Close()

	called := false
	msgs, err := st.FetchMessages(context.Background(), "quiet", 0, base*2, func(int) { called = true })
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.False(t, called)
}

func TestFetchMessages_AfterCloseFails(t *testing.T) {
	st, err := storage.OpenSQLite(context.Background(), newFixture(t), 0, nil)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.NoError(t, st.Close(), "Close is idempotent")

	_, err = st.FetchMessages(context.Background(), "alice", 0, base*2, nil)
	var se *storage.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "alice", se.SessionID)
}

func TestFetchMessages_CanceledContext(t *testing.T) {
	st, err := storage.OpenSQLite(context.Background(), newFixture(t), 0, nil)
	require.NoError(t, err)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = st.FetchMessages(ctx, "alice", 0, base*2, nil)
	assert.Error(t, err)
}

func TestListSessions(t *testing.T) {
	st, err := storage.OpenSQLite(context.Background(), newFixture(t), 0, nil)
	require.NoError(t, err)
	defer st.Close()

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	// Most recently active first; the empty session sorts last.
	assert.Equal(t, "alice", sessions[0].ID)
	assert.Equal(t, 450, sessions[0].Meta.MessageCount)
	assert.Equal(t, "team", sessions[1].ID)
	assert.Equal(t, model.SessionGroup, sessions[1].Meta.Kind)
	assert.Equal(t, 5, sessions[1].Meta.MemberCount)
	assert.Equal(t, "quiet", sessions[2].ID)
	assert.True(t, sessions[2].Meta.LastActive.IsZero())
}

func TestSQLiteOpener_ImplementsOpener(t *testing.T) {
	var opener storage.Opener = storage.SQLiteOpener{Path: newFixture(t)}
	st, err := opener.Open(context.Background())
	require.NoError(t, err)
	assert.NoError(t, st.Close())
}
