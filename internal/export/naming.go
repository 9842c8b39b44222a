// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/chatexport/internal/model"
)

// fallbackName is used when a display name sanitizes to nothing.
const fallbackName = "session"

// reservedStems are device names Windows refuses as a file stem.
var reservedStems = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeName makes a display name safe to use as a file name: each of
// < > : " / \ | ? * and every control character becomes '_'. The result is
// NFC-normalized so the same name always maps to the same bytes. A Windows
// device name such as "CON" or "com1.log" gets '_' appended to its stem.
func SanitizeName(name string) string {
	name = norm.NFC.String(name)

	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			sb.WriteRune('_')
		case r < 32 || r == 127:
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}

	out := sb.String()
	if strings.TrimSpace(out) == "" {
		return fallbackName
	}
	stem, rest, hasExt := strings.Cut(out, ".")
	if reservedStems[strings.ToUpper(strings.TrimRight(stem, " "))] {
		out = stem + "_"
		if hasExt {
			out += "." + rest
		}
	}
	return out
}

// FileName returns "{sanitizedName}_{epochMillis}.{ext}".
func FileName(name string, epochMillis int64, f model.Format) string {
	return SanitizeName(name) + "_" + strconv.FormatInt(epochMillis, 10) + "." + f.Extension()
}

// OutputPath joins dir and FileName.
func OutputPath(dir, name string, epochMillis int64, f model.Format) string {
	return filepath.Join(dir, FileName(name, epochMillis, f))
}
