// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// TimeWindow bounds the messages an export includes. Either All is set, or
// Start and End name calendar days (their clock time is ignored).
type TimeWindow struct {
	All   bool      `json:"all"`
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// AllTime returns a window covering every message.
func AllTime() TimeWindow {
	return TimeWindow{All: true}
}

// DateRange returns a window from the start of start's day through the end
// of end's day.
func DateRange(start, end time.Time) TimeWindow {
	return TimeWindow{Start: start, End: end}
}

// Bounds returns the inclusive [start, end] range in epoch seconds.
// All time is [0, now]. A date range runs from 00:00:00 on the start day to
// 23:59:59 on the end day, both evaluated in loc.
func (w TimeWindow) Bounds(now time.Time, loc *time.Location) (int64, int64) {
	if w.All {
		return 0, now.Unix()
	}
	if loc == nil {
		loc = time.Local
	}
	s := w.Start.In(loc)
	e := w.End.In(loc)
	start := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	end := time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 0, loc)
	return start.Unix(), end.Unix()
}

// Validate rejects empty or inverted date ranges.
func (w TimeWindow) Validate() error {
	if w.All {
		return nil
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("date range needs both start and end")
	}
	sy, sm, sd := w.Start.Date()
	ey, em, ed := w.End.Date()
	if time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Before(time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)) {
		return fmt.Errorf("end day %s is before start day %s",
			w.End.Format("2006-01-02"), w.Start.Format("2006-01-02"))
	}
	return nil
}

// String describes the window for logs.
func (w TimeWindow) String() string {
	if w.All {
		return "all time"
	}
	return w.Start.Format("2006-01-02") + ".." + w.End.Format("2006-01-02")
}
