package repo

import (
	"fmt"
)

// ResetHard discards the index and working tree, restoring both to the
// HEAD commit. This is the recovery path for abandoning a conflicted
// merge: conflict stages are dropped along with everything else.
func (r *Repo) ResetHard() error {
	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return fmt.Errorf("reset: resolve HEAD: %w", err)
	}
	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return fmt.Errorf("reset: read HEAD commit: %w", err)
	}
	if err := r.materializeTree(commit.TreeHash); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// Reset unstages paths by restoring index entries to their HEAD
// versions. Paths missing from HEAD are removed from the index; with no
// paths the entire index is reset. The working tree is left alone.
func (r *Repo) Reset(paths []string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	headEntries := r.headTreeEntries()

	targets := paths
	if len(targets) == 0 {
		seen := make(map[string]struct{})
		for p := range stg.Entries {
			seen[p] = struct{}{}
		}
		for p := range headEntries {
			seen[p] = struct{}{}
		}
		targets = targets[:0]
		for p := range seen {
			targets = append(targets, p)
		}
	}

	for _, raw := range targets {
		p, err := r.repoRelPath(raw)
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		if head, ok := headEntries[p]; ok {
			// Size -1 forces the next status to hash-check this path.
			stg.SetStageZero(&StagingEntry{
				Path:     p,
				BlobHash: head.BlobHash,
				Mode:     head.Mode,
				ModTime:  0,
				Size:     -1,
			})
			continue
		}
		stg.Remove(p)
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
