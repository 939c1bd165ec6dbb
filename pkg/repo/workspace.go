package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace mediates all reads and writes to the working directory. Paths
// are repo-relative with forward slashes.
type Workspace struct {
	root string
}

func (w *Workspace) abs(path string) string {
	return filepath.Join(w.root, filepath.FromSlash(path))
}

// Read returns the file's raw content.
func (w *Workspace) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(w.abs(path))
	if err != nil {
		return nil, fmt.Errorf("workspace read %q: %w", path, err)
	}
	return data, nil
}

// Write creates or replaces the file, creating parent directories as
// needed.
func (w *Workspace) Write(path string, data []byte, perm os.FileMode) error {
	abs := w.abs(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("workspace mkdir for %q: %w", path, err)
	}
	if err := os.WriteFile(abs, data, perm); err != nil {
		return fmt.Errorf("workspace write %q: %w", path, err)
	}
	// WriteFile does not change the mode of an existing file.
	if err := os.Chmod(abs, perm); err != nil {
		return fmt.Errorf("workspace chmod %q: %w", path, err)
	}
	return nil
}

// Remove deletes the file and prunes any parent directories left empty.
// A missing file is not an error.
func (w *Workspace) Remove(path string) error {
	abs := w.abs(path)
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("workspace remove %q: %w", path, err)
	}
	w.removeEmptyParents(filepath.Dir(abs))
	return nil
}

// MakeDirectory creates the directory and any missing parents.
func (w *Workspace) MakeDirectory(path string) error {
	if err := os.MkdirAll(w.abs(path), 0o755); err != nil {
		return fmt.Errorf("workspace mkdir %q: %w", path, err)
	}
	return nil
}

// Exists reports whether the path exists in the working directory.
func (w *Workspace) Exists(path string) bool {
	_, err := os.Stat(w.abs(path))
	return err == nil
}

// Stat returns file metadata for the path.
func (w *Workspace) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(w.abs(path))
	if err != nil {
		return nil, fmt.Errorf("workspace stat %q: %w", path, err)
	}
	return info, nil
}

// removeEmptyParents removes empty directories up to (but not including)
// the workspace root.
func (w *Workspace) removeEmptyParents(dir string) {
	for {
		if dir == w.root || !strings.HasPrefix(dir, w.root) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}
