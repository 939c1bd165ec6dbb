package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jotvcs/jot/pkg/object"
)

// Checkout switches the working directory to the state of the target.
// The target can be a branch name or a raw commit hash. Refuses to run
// while the working tree has uncommitted changes.
func (r *Repo) Checkout(target string) error {
	if err := r.ensureClean(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	// Try as branch name first, then as raw hash.
	isBranch := false
	var targetHash object.Hash
	if branchHash, err := r.ResolveRef("refs/heads/" + target); err == nil {
		targetHash = branchHash
		isBranch = true
	} else {
		targetHash = object.Hash(target)
	}

	commit, err := r.Store.ReadCommit(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: cannot read commit %s: %w", targetHash, err)
	}

	if err := r.materializeTree(commit.TreeHash); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	headPath := filepath.Join(r.JotDir, "HEAD")
	var headContent string
	if isBranch {
		headContent = "ref: refs/heads/" + target + "\n"
	} else {
		headContent = string(targetHash) + "\n"
	}
	if err := os.WriteFile(headPath, []byte(headContent), 0o644); err != nil {
		return fmt.Errorf("checkout: update HEAD: %w", err)
	}
	return nil
}

// materializeTree replaces all tracked files in the working directory
// with the given tree's content and rebuilds the index to match.
func (r *Repo) materializeTree(treeHash object.Hash) error {
	targetFiles, err := r.FlattenTree(treeHash)
	if err != nil {
		return fmt.Errorf("flatten target tree: %w", err)
	}

	ws := r.Workspace()

	// Remove currently tracked files first.
	for path := range r.trackedFiles() {
		if err := ws.Remove(path); err != nil {
			return err
		}
	}

	stg := &Staging{Entries: make(map[string][]*StagingEntry, len(targetFiles))}
	for _, f := range targetFiles {
		blob, err := r.Store.ReadBlob(f.BlobHash)
		if err != nil {
			return fmt.Errorf("read blob for %q: %w", f.Path, err)
		}
		if err := ws.Write(f.Path, blob.Data, filePermFromMode(f.Mode)); err != nil {
			return err
		}
		info, err := ws.Stat(f.Path)
		if err != nil {
			return err
		}
		stg.SetStageZero(&StagingEntry{
			Path:     f.Path,
			BlobHash: f.BlobHash,
			Mode:     f.Mode,
			ModTime:  info.ModTime().UnixNano(),
			Size:     info.Size(),
		})
	}
	return r.WriteStaging(stg)
}

// ensureClean checks that the working tree has no uncommitted changes.
func (r *Repo) ensureClean() error {
	entries, err := r.Status()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	for _, e := range entries {
		if e.IndexStatus == StatusUntracked {
			continue
		}
		if e.IndexStatus != StatusClean || e.WorkStatus != StatusClean {
			return fmt.Errorf("working tree is not clean (file %q has uncommitted changes)", e.Path)
		}
	}
	return nil
}

// trackedFiles returns the set of all currently tracked file paths from
// the HEAD tree and the staging index.
func (r *Repo) trackedFiles() map[string]bool {
	files := make(map[string]bool)
	for path := range r.headTreeEntries() {
		files[path] = true
	}
	if stg, err := r.ReadStaging(); err == nil {
		for path := range stg.Entries {
			files[path] = true
		}
	}
	return files
}
