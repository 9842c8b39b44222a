// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// Format is an export output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
	FormatSQL  Format = "sql"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatJSON, FormatHTML, FormatXLSX, FormatSQL}

// ParseFormat normalises s into a Format. Unknown values are returned as-is
// (lower-cased); whether they can be exported is decided at dispatch time.
func ParseFormat(s string) Format {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "htm":
		return FormatHTML
	case "excel", "xls":
		return FormatXLSX
	}
	return f
}

// Known reports whether f is one of the supported formats.
func (f Format) Known() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	return string(f)
}

func (f Format) String() string {
	return string(f)
}
