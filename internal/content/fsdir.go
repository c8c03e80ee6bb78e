package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is a read-only handle on one content directory. All paths passed to its
// methods are relative to the root and rejected if they escape it.
//
// A Dir may point at a directory that does not exist; listing it yields no
// files and reads return fs.ErrNotExist. Optional source trees (like the PKM
// export) rely on this.
type Dir struct {
	root string
}

// NewDir creates a Dir rooted at the given directory.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("content: resolve root: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("content: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute root path.
func (d *Dir) Root() string {
	return d.root
}

// safePath resolves a relative path against the root and rejects any result
// that escapes it (directory traversal).
func (d *Dir) safePath(rel string) (string, error) {
	if rel == "" {
		return d.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("content: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(d.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("content: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) && abs != d.root {
		return "", fmt.Errorf("content: path escapes content root: %s", rel)
	}
	return abs, nil
}

// Read returns the raw bytes of a file under the root.
func (d *Dir) Read(rel string) ([]byte, error) {
	abs, err := d.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", rel, err)
	}
	return data, nil
}

// List returns the relative paths of every file with the given extension
// under the root, sorted. When recursive is false only the top level is
// scanned; subdirectory names become id segments otherwise.
func (d *Dir) List(ext string, recursive bool) ([]string, error) {
	suffix := "." + ext
	var out []string
	err := filepath.WalkDir(d.root, func(p string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == d.root && errors.Is(walkErr, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return walkErr
		}
		if de.IsDir() {
			if !recursive && p != d.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(de.Name(), suffix) {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("content: list %s: %w", d.root, err)
	}
	sort.Strings(out)
	return out, nil
}
