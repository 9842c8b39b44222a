// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeWindow_AllTime(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	start, end := AllTime().Bounds(now, time.UTC)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, now.Unix(), end)
}

func TestTimeWindow_DateRangeCoversWholeDays(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	w := DateRange(
		time.Date(2025, 1, 2, 13, 45, 0, 0, loc),
		time.Date(2025, 1, 4, 8, 0, 0, 0, loc),
	)

	start, end := w.Bounds(time.Now(), loc)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, loc).Unix(), start)
	assert.Equal(t, time.Date(2025, 1, 4, 23, 59, 59, 0, loc).Unix(), end)
}

func TestTimeWindow_SingleDay(t *testing.T) {
	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	start, end := DateRange(day, day).Bounds(time.Now(), time.UTC)
	assert.Equal(t, int64(24*3600-1), end-start)
}

func TestTimeWindow_Validate(t *testing.T) {
	d1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, AllTime().Validate())
	assert.NoError(t, DateRange(d1, d2).Validate())
	assert.NoError(t, DateRange(d1, d1).Validate())
	assert.Error(t, DateRange(d2, d1).Validate())
	assert.Error(t, TimeWindow{Start: d1}.Validate())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{" JSON ", FormatJSON},
		{"htm", FormatHTML},
		{"excel", FormatXLSX},
		{"sql", FormatSQL},
		{"pdf", Format("pdf")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseFormat(tt.in), "ParseFormat(%q)", tt.in)
	}
	assert.True(t, FormatXLSX.Known())
	assert.False(t, Format("pdf").Known())
}

func TestChronological(t *testing.T) {
	newestFirst := []Message{{ID: 3, CreateTime: 30}, {ID: 2, CreateTime: 20}, {ID: 1, CreateTime: 10}}
	got := Chronological(newestFirst)

	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[2].ID)
	assert.Equal(t, int64(3), newestFirst[0].ID, "input must not be modified")
}

func TestSessionSpec_Name(t *testing.T) {
	assert.Equal(t, "Alice", SessionSpec{ID: "wxid_1", DisplayName: "Alice"}.Name())
	assert.Equal(t, "Bob", SessionSpec{ID: "wxid_2", Meta: SessionMeta{Remark: "Bob"}}.Name())
	assert.Equal(t, "wxid_3", SessionSpec{ID: "wxid_3"}.Name())
}

func TestJob_Validate(t *testing.T) {
	valid := NewJob([]SessionSpec{{ID: "a"}, {ID: "b"}}, FormatJSON, AllTime(), "/tmp/out")
	require.NoError(t, valid.Validate())
	assert.NotEmpty(t, valid.ID)

	dup := valid
	dup.Sessions = []SessionSpec{{ID: "a"}, {ID: "a"}}
	err := dup.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidJob))
	assert.Contains(t, err.Error(), "duplicate")

	noDir := valid
	noDir.DestDir = ""
	assert.Error(t, noDir.Validate())

	unknownFormat := valid
	unknownFormat.Format = "pdf"
	assert.NoError(t, unknownFormat.Validate(), "format is checked per session, not per job")
}

func TestJob_CloneDoesNotAlias(t *testing.T) {
	job := NewJob([]SessionSpec{{ID: "a", DisplayName: "A"}}, FormatJSON, AllTime(), "/tmp")
	c := job.Clone()
	job.Sessions[0].DisplayName = "changed"
	assert.Equal(t, "A", c.Sessions[0].DisplayName)
}
