// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package util

import "golang.org/x/sys/unix"

// FreeDiskSpace returns the bytes available to the current user on the
// filesystem holding path.
func FreeDiskSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	// Bavail, not Bfree: blocks reserved for root are not ours to fill.
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
