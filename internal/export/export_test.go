// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jeranaias/chatexport/internal/model"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testOptions() *Options {
	return &Options{Theme: "dark", Pretty: true, Now: func() time.Time { return fixedNow }}
}

func testMessages(n int) []model.Message {
	msgs := make([]model.Message, n)
	for i := range msgs {
		msgs[i] = model.Message{
			ID:         int64(i + 1),
			SessionID:  "s1",
			Sender:     "u1",
			SenderName: "Alice",
			IsSend:     i%2 == 1,
			Kind:       model.KindText,
			Content:    "hello " + strings.Repeat("x", i%5),
			CreateTime: 1_700_000_000 + int64(i)*60,
		}
	}
	return msgs
}

func testRequest(t *testing.T, f model.Format, msgs []model.Message) Request {
	t.Helper()
	return Request{
		Session:  model.SessionSpec{ID: "s1", DisplayName: "Alice"},
		Messages: msgs,
		Path:     OutputPath(t.TempDir(), "Alice", 1, f),
	}
}

// dirEntries lists names in dir, used to prove no temp file was left behind.
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistry_DefaultFormats(t *testing.T) {
	reg := DefaultRegistry(nil)
	assert.Equal(t, []model.Format{model.FormatHTML, model.FormatJSON, model.FormatSQL, model.FormatXLSX}, reg.Formats())

	for _, f := range model.Formats {
		enc, err := reg.Lookup(f)
		require.NoError(t, err, "format %s", f)
		assert.Equal(t, f, enc.Format())
	}
}

func TestRegistry_UnknownFormat(t *testing.T) {
	_, err := DefaultRegistry(nil).Lookup("pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), "pdf")

	var nilReg *Registry
	_, err = nilReg.Lookup(model.FormatJSON)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := NewRegistry(NewJSONEncoder(nil))
	custom := NewJSONEncoder(&Options{Pretty: false})
	reg.Register(custom)

	enc, err := reg.Lookup(model.FormatJSON)
	require.NoError(t, err)
	assert.Same(t, custom, enc)
}

// =============================================================================
// NAMING
// =============================================================================

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice", "Alice"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"tab\there", "tab_here"},
		{"家人群", "家人群"},
		{"", "session"},
		{"   ", "session"},
		{"CON", "CON_"},
		{"nul", "nul_"},
		{"com1.log", "com1_.log"},
		{"Console", "Console"},
		{"LPT10", "LPT10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), "SanitizeName(%q)", tt.in)
	}

	// Decomposed and precomposed forms map to the same file name.
	assert.Equal(t, SanitizeName("caf\u00e9"), SanitizeName("cafe\u0301"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Team_A_1700000000123.xlsx", FileName("Team/A", 1700000000123, model.FormatXLSX))
	assert.Equal(t, filepath.Join("out", "Bob_5.sql"), OutputPath("out", "Bob", 5, model.FormatSQL))
}

// =============================================================================
// JSON
// =============================================================================

func TestJSONEncoder_StreamingMatchesBuffered(t *testing.T) {
	msgs := testMessages(300)
	enc := NewJSONEncoder(testOptions())

	decode := func(streaming bool) jsonDocument {
		req := testRequest(t, model.FormatJSON, msgs)
		req.Streaming = streaming
		require.NoError(t, enc.Encode(context.Background(), req))

		data, err := os.ReadFile(req.Path)
		require.NoError(t, err)
		var doc jsonDocument
		require.NoError(t, json.Unmarshal(data, &doc), string(data[:min(len(data), 200)]))
		return doc
	}

	buffered := decode(false)
	streamed := decode(true)

	assert.Equal(t, 300, buffered.MessageCount)
	assert.Len(t, buffered.Messages, 300)
	assert.Equal(t, "Alice", buffered.Session.DisplayName)
	assert.Equal(t, fixedNow.Format(time.RFC3339), buffered.ExportedAt)
	assert.Equal(t, buffered, streamed)
}

func TestJSONEncoder_EmptyStreaming(t *testing.T) {
	req := testRequest(t, model.FormatJSON, nil)
	req.Streaming = true
	require.NoError(t, NewJSONEncoder(testOptions()).Encode(context.Background(), req))

	data, err := os.ReadFile(req.Path)
	require.NoError(t, err)
	var doc jsonDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Empty(t, doc.Messages)
}

func TestJSONEncoder_ReportsProgress(t *testing.T) {
	req := testRequest(t, model.FormatJSON, testMessages(10))
	var counts []int
	req.OnProgress = func(count, total int) {
		assert.Equal(t, 10, total)
		counts = append(counts, count)
	}
	require.NoError(t, NewJSONEncoder(testOptions()).Encode(context.Background(), req))
	require.Len(t, counts, 10)
	assert.Equal(t, 10, counts[9])
}

// =============================================================================
// HTML
// =============================================================================

func TestHTMLEncoder_EscapesContent(t *testing.T) {
	msgs := testMessages(2)
	msgs[0].Content = "<script>alert('xss')</script>"
	msgs[1].SenderName = "<b>Mallory</b>"
	req := testRequest(t, model.FormatHTML, msgs)
	req.Session.DisplayName = "A & B"

	require.NoError(t, NewHTMLEncoder(testOptions()).Encode(context.Background(), req))
	data, err := os.ReadFile(req.Path)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "<script>alert")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "<title>A &amp; B</title>")
	assert.Contains(t, out, "dark-theme")
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
}

func TestHTMLEncoder_NonTextPlaceholder(t *testing.T) {
	msgs := testMessages(1)
	msgs[0].Kind = model.KindImage
	msgs[0].Content = ""
	req := testRequest(t, model.FormatHTML, msgs)

	require.NoError(t, NewHTMLEncoder(&Options{Theme: "light"}).Encode(context.Background(), req))
	data, err := os.ReadFile(req.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[image]")
	assert.Contains(t, string(data), "light-theme")
}

func TestHTMLEncoder_ThemeIgnoresCase(t *testing.T) {
	req := testRequest(t, model.FormatHTML, testMessages(1))

	require.NoError(t, NewHTMLEncoder(&Options{Theme: "Light"}).Encode(context.Background(), req))
	data, err := os.ReadFile(req.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<body class="light-theme">`)
}

// =============================================================================
// XLSX
// =============================================================================

func TestXLSXEncoder_Rows(t *testing.T) {
	for _, streaming := range []bool{false, true} {
		req := testRequest(t, model.FormatXLSX, testMessages(25))
		req.Streaming = streaming
		require.NoError(t, NewXLSXEncoder(testOptions()).Encode(context.Background(), req))

		f, err := excelize.OpenFile(req.Path)
		require.NoError(t, err)
		rows, err := f.GetRows(xlsxSheet)
		require.NoError(t, err)
		f.Close()

		require.Len(t, rows, 26, "streaming=%v", streaming)
		assert.Equal(t, "Content", rows[0][5])
		assert.Equal(t, "1", rows[1][0])
		assert.Equal(t, "Alice", rows[1][2])
		assert.Equal(t, "received", rows[1][3])
		assert.Equal(t, "sent", rows[2][3])
	}
}

// =============================================================================
// SQL
// =============================================================================

func TestSQLEncoder_BatchesAndQuotes(t *testing.T) {
	msgs := testMessages(250)
	msgs[0].Content = "it's"
	req := testRequest(t, model.FormatSQL, msgs)

	require.NoError(t, NewSQLEncoder(testOptions()).Encode(context.Background(), req))
	data, err := os.ReadFile(req.Path)
	require.NoError(t, err)
	out := string(data)

	assert.Equal(t, 3, strings.Count(out, "INSERT INTO messages"))
	assert.Contains(t, out, "'it''s'")
	assert.Contains(t, out, "BEGIN TRANSACTION;")
	assert.True(t, strings.HasSuffix(out, "COMMIT;\n"))
}

func TestSQLQuote(t *testing.T) {
	assert.Equal(t, "''", sqlQuote(""))
	assert.Equal(t, "'O''Brien'", sqlQuote("O'Brien"))
	assert.Equal(t, "'ab'", sqlQuote("a\x00b"))
}

// =============================================================================
// FAILURE LEAVES NOTHING BEHIND
// =============================================================================

func TestEncoders_CanceledLeavesNoFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, f := range model.Formats {
		for _, streaming := range []bool{false, true} {
			enc, err := DefaultRegistry(testOptions()).Lookup(f)
			require.NoError(t, err)

			req := testRequest(t, f, testMessages(5))
			req.Streaming = streaming
			err = enc.Encode(ctx, req)
			require.Error(t, err, "%s streaming=%v", f, streaming)
			assert.True(t, errors.Is(err, context.Canceled))

			assert.Empty(t, dirEntries(t, filepath.Dir(req.Path)), "%s streaming=%v", f, streaming)
		}
	}
}

func TestEncoders_MissingDirectory(t *testing.T) {
	for _, f := range model.Formats {
		enc, err := DefaultRegistry(testOptions()).Lookup(f)
		require.NoError(t, err)

		req := testRequest(t, f, testMessages(1))
		req.Path = filepath.Join(t.TempDir(), "missing", FileName("Alice", 1, f))
		assert.Error(t, enc.Encode(context.Background(), req), "%s", f)
	}
}
