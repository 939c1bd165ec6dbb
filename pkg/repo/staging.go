package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jotvcs/jot/pkg/object"
)

// Index stages, matching Git's convention.
const (
	StageResolved = 0 // normal staged entry
	StageBase     = 1 // common ancestor version of a conflicted path
	StageOurs     = 2 // our side of a conflicted path
	StageTheirs   = 3 // their side of a conflicted path
)

// StagingEntry records one staged state of a file. A path holds either a
// single stage-0 entry, or one to three entries at stages 1-3 while a
// conflict is unresolved — never both.
type StagingEntry struct {
	Path     string      `json:"path"`
	Stage    int         `json:"stage"`
	BlobHash object.Hash `json:"blob_hash"`
	Mode     string      `json:"mode"`
	ModTime  int64       `json:"mod_time"`
	Size     int64       `json:"size"`
}

// StageSlot names one side of a conflict for AddConflict. A nil slot means
// the path does not exist on that side.
type StageSlot struct {
	OID  object.Hash
	Mode string
}

// Staging holds the full staging area (index) for a Jot repository.
type Staging struct {
	Entries map[string][]*StagingEntry `json:"entries"`
}

// StageZero returns the path's stage-0 entry, or nil if the path is
// unstaged or conflicted.
func (s *Staging) StageZero(path string) *StagingEntry {
	for _, e := range s.Entries[path] {
		if e.Stage == StageResolved {
			return e
		}
	}
	return nil
}

// StageEntry returns the path's entry at the given stage, or nil.
func (s *Staging) StageEntry(path string, stage int) *StagingEntry {
	for _, e := range s.Entries[path] {
		if e.Stage == stage {
			return e
		}
	}
	return nil
}

// SetStageZero replaces all entries for the path with a single stage-0
// entry.
func (s *Staging) SetStageZero(e *StagingEntry) {
	e.Stage = StageResolved
	s.Entries[e.Path] = []*StagingEntry{e}
}

// Remove drops every entry for the path.
func (s *Staging) Remove(path string) {
	delete(s.Entries, path)
}

// AddConflict records an unresolved conflict for the path. Any stage-0
// entry is cleared; one entry per non-nil side is written at stages 1-3.
func (s *Staging) AddConflict(path string, base, ours, theirs *StageSlot) {
	var entries []*StagingEntry
	add := func(stage int, slot *StageSlot) {
		if slot == nil {
			return
		}
		entries = append(entries, &StagingEntry{
			Path:     path,
			Stage:    stage,
			BlobHash: slot.OID,
			Mode:     slot.Mode,
		})
	}
	add(StageBase, base)
	add(StageOurs, ours)
	add(StageTheirs, theirs)
	s.Entries[path] = entries
}

// HasConflict reports whether any path holds entries above stage 0.
func (s *Staging) HasConflict() bool {
	for _, entries := range s.Entries {
		for _, e := range entries {
			if e.Stage > StageResolved {
				return true
			}
		}
	}
	return false
}

// ConflictPaths returns the sorted list of paths with unresolved
// conflicts.
func (s *Staging) ConflictPaths() []string {
	var paths []string
	for path, entries := range s.Entries {
		for _, e := range entries {
			if e.Stage > StageResolved {
				paths = append(paths, path)
				break
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// ResolveConflict collapses the path's conflict entries to a single
// stage-0 entry with the given content.
func (s *Staging) ResolveConflict(path string, oid object.Hash, mode string) {
	s.SetStageZero(&StagingEntry{
		Path:     path,
		BlobHash: oid,
		Mode:     normalizeFileMode(mode),
	})
}

// indexPath returns the filesystem path to the staging index file.
func (r *Repo) indexPath() string {
	return filepath.Join(r.JotDir, "index")
}

// ReadStaging loads the staging area from .jot/index. If the file does
// not exist, an empty Staging is returned (no error).
func (r *Repo) ReadStaging() (*Staging, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Staging{Entries: make(map[string][]*StagingEntry)}, nil
		}
		return nil, fmt.Errorf("read staging: %w", err)
	}

	var stg Staging
	if err := json.Unmarshal(data, &stg); err != nil {
		return nil, fmt.Errorf("read staging: unmarshal: %w", err)
	}
	if stg.Entries == nil {
		stg.Entries = make(map[string][]*StagingEntry)
	}
	return &stg, nil
}

// WriteStaging atomically writes the staging area to .jot/index.
func (r *Repo) WriteStaging(s *Staging) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("write staging: marshal: %w", err)
	}

	// Atomic write via temp file + rename.
	tmp, err := os.CreateTemp(r.JotDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write staging: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write staging: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: close: %w", err)
	}

	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: rename: %w", err)
	}
	return nil
}

// Add stages the given file paths at stage 0. Each path is resolved
// relative to the repo root; content is written to the object store as a
// blob and the entry records the hash plus file metadata. Adding a
// conflicted path marks its conflict resolved.
func (r *Repo) Add(paths []string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
		content, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("add: read %q: %w", relPath, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("add: write blob %q: %w", relPath, err)
		}

		stg.SetStageZero(&StagingEntry{
			Path:     relPath,
			BlobHash: blobHash,
			Mode:     modeFromFileInfo(info),
			ModTime:  info.ModTime().UnixNano(),
			Size:     info.Size(),
		})
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// RemoveFiles unstages the given paths and deletes them from the
// working directory.
func (r *Repo) RemoveFiles(paths []string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}

	ws := r.Workspace()
	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("rm: resolve path %q: %w", p, err)
		}
		stg.Remove(relPath)
		if err := ws.Remove(relPath); err != nil {
			return fmt.Errorf("rm: %w", err)
		}
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	return nil
}

// repoRelPath converts a path (absolute, or relative to CWD) into a path
// relative to the repository root. If the path is already relative and
// does not resolve inside the repo root, it is assumed to already be
// repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		return filepath.ToSlash(rel), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	// If the relative path escapes the repo, treat the original p as
	// already repo-relative.
	if len(rel) >= 2 && rel[:2] == ".." {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	return filepath.ToSlash(rel), nil
}
