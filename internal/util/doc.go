// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides file and string helpers shared by the exporters.
//
// # Key Functions
//
// File Operations:
//   - CreateAtomic: streaming writer that only publishes on Commit
//   - AtomicWriteFile: crash-safe one-shot write with fsync
//   - FreeDiskSpace: bytes available on the volume holding a path
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: display-width truncation for terminal output
//
// # Usage
//
//	f, err := util.CreateAtomic(path, 0644)
//	if err != nil {
//	    return err
//	}
//	defer f.Abort()
//	// ... write to f ...
//	return f.Commit()
package util
