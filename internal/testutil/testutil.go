// Package testutil provides shared test helpers for building content trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ContentDir creates a temporary content root that is automatically
// cleaned up.
func ContentDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// WriteFile writes a content file under root, creating parent
// directories as needed. rel uses slash separators.
func WriteFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Doc assembles a front-matter document from key-value lines and a body.
func Doc(front, body string) string {
	if front == "" {
		return body
	}
	return "---\n" + front + "\n---\n" + body
}
