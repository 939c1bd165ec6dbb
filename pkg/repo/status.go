package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jotvcs/jot/pkg/object"
)

// FileStatus represents the state of a file in the working tree or
// index.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusNew                         // in staging, not in HEAD tree
	StatusModified                    // in staging, different from HEAD
	StatusConflict                    // file has unresolved merge conflicts in index
	StatusDeleted                     // tracked but missing from the other side
	StatusUntracked                   // in working dir but not in staging
	StatusDirty                       // staged but working copy differs from staged
)

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // staging vs HEAD comparison
	WorkStatus  FileStatus // working tree vs staging comparison
}

// Status computes the working tree status for the repository: the
// working directory against the index, and the index against HEAD.
// Conflicted paths report StatusConflict on both axes.
func (r *Repo) Status() ([]StatusEntry, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	workFiles, err := r.scanWorkFiles()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	result := make(map[string]*StatusEntry)
	at := func(path string) *StatusEntry {
		e, ok := result[path]
		if !ok {
			e = &StatusEntry{Path: path}
			result[path] = e
		}
		return e
	}

	// Conflicted paths short-circuit both comparisons.
	for _, path := range stg.ConflictPaths() {
		e := at(path)
		e.IndexStatus = StatusConflict
		e.WorkStatus = StatusConflict
	}

	// Working tree vs staging.
	for path := range workFiles {
		if stg.StageZero(path) == nil {
			if stg.StageEntry(path, StageBase) != nil ||
				stg.StageEntry(path, StageOurs) != nil ||
				stg.StageEntry(path, StageTheirs) != nil {
				continue // already marked conflicted
			}
			e := at(path)
			e.IndexStatus = StatusUntracked
			e.WorkStatus = StatusUntracked
			continue
		}

		se := stg.StageZero(path)
		dirty, err := r.worktreeDiffers(path, se)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if dirty {
			at(path).WorkStatus = StatusDirty
		} else {
			at(path).WorkStatus = StatusClean
		}
	}

	// Staged entries not on disk.
	for path := range stg.Entries {
		se := stg.StageZero(path)
		if se == nil {
			continue
		}
		if _, onDisk := workFiles[path]; !onDisk {
			at(path).WorkStatus = StatusDeleted
		}
	}

	// Staging vs HEAD.
	headEntries := r.headTreeEntries()
	for path := range stg.Entries {
		se := stg.StageZero(path)
		if se == nil {
			continue
		}
		e := at(path)
		head, inHead := headEntries[path]
		switch {
		case !inHead:
			e.IndexStatus = StatusNew
		case se.BlobHash != head.BlobHash || normalizeFileMode(se.Mode) != head.Mode:
			e.IndexStatus = StatusModified
		default:
			e.IndexStatus = StatusClean
		}
	}
	for path := range headEntries {
		if _, staged := stg.Entries[path]; !staged {
			at(path).IndexStatus = StatusDeleted
		}
	}

	entries := make([]StatusEntry, 0, len(result))
	for _, e := range result {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// scanWorkFiles collects all working-tree files as repo-relative paths,
// skipping ignored paths.
func (r *Repo) scanWorkFiles() (map[string]bool, error) {
	ic := NewIgnoreChecker(r.RootDir)
	workFiles := make(map[string]bool)

	err := filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ic.IsIgnored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			workFiles[rel] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}
	return workFiles, nil
}

// worktreeDiffers compares the on-disk file against a staged entry,
// using stat metadata as a short-circuit before hashing content.
func (r *Repo) worktreeDiffers(path string, se *StagingEntry) (bool, error) {
	absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	if modeFromFileInfo(info) != normalizeFileMode(se.Mode) {
		return true, nil
	}
	if info.Size() == se.Size && info.ModTime().UnixNano() == se.ModTime {
		return false, nil
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", path, err)
	}
	return object.HashObject(object.TypeBlob, content) != se.BlobHash, nil
}

// headTreeEntries reads the HEAD commit's tree flattened into path →
// entry. A fresh repository yields an empty map.
func (r *Repo) headTreeEntries() map[string]TreeFileEntry {
	result := make(map[string]TreeFileEntry)

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return result
	}
	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return result
	}
	files, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return result
	}
	for _, f := range files {
		result[f.Path] = f
	}
	return result
}
