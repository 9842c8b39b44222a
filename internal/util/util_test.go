// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	data := []byte("hello, world!")

	if err := AtomicWriteFile(path, data, 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", string(content), string(data))
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "deep", "test.txt")

	if err := AtomicWriteFile(path, []byte("test data"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("File not created: %v", err)
	}
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	if err := AtomicWriteFile(path, []byte("initial"), 0644); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("updated"), 0644); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "updated" {
		t.Errorf("Expected 'updated', got %q", string(content))
	}
}

func TestAtomicFile_CommitPublishes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	f, err := CreateAtomic(path, 0644)
	if err != nil {
		t.Fatalf("CreateAtomic failed: %v", err)
	}
	defer f.Abort()

	if _, err := f.Write([]byte("part one, ")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("target should not exist before Commit, stat err = %v", err)
	}
	if _, err := f.Write([]byte("part two")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := f.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != "part one, part two" {
		t.Errorf("Content mismatch: got %q", string(content))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the committed file in dir, found %d entries", len(entries))
	}
}

func TestAtomicFile_AbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.html")

	f, err := CreateAtomic(path, 0644)
	if err != nil {
		t.Fatalf("CreateAtomic failed: %v", err)
	}
	f.Write([]byte("<html>"))
	f.Abort()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("target should not exist after Abort")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}

	if _, err := f.Write([]byte("more")); err != ErrFileClosed {
		t.Errorf("Write after Abort = %v, want ErrFileClosed", err)
	}
	if err := f.Commit(); err != ErrFileClosed {
		t.Errorf("Commit after Abort = %v, want ErrFileClosed", err)
	}
}

func TestCreateAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.sql")
	if _, err := CreateAtomic(path, 0644); err == nil {
		t.Error("expected error for missing parent directory")
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input    string
		maxRunes int
		want     string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"你好世界你好世界", 5, "你好..."},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.input, tt.maxRunes); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	if got := TruncateWidth("short", 10); got != "short" {
		t.Errorf("TruncateWidth kept = %q", got)
	}

	got := TruncateWidth("你好世界你好世界", 8)
	if StringWidth(got) > 8 {
		t.Errorf("TruncateWidth width = %d, want <= 8", StringWidth(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("TruncateWidth(%q) missing ellipsis", got)
	}

	if got := TruncateWidth("anything", 0); got != "" {
		t.Errorf("TruncateWidth zero width = %q", got)
	}
}

func TestStringWidth(t *testing.T) {
	if w := StringWidth("abc"); w != 3 {
		t.Errorf("StringWidth(abc) = %d", w)
	}
	if w := StringWidth("你好"); w != 4 {
		t.Errorf("StringWidth(你好) = %d", w)
	}
}
