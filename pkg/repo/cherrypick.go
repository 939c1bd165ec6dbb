package repo

import (
	"fmt"
)

// CherryPick applies the changes introduced by a single commit onto the
// current HEAD. The picked commit's parent serves as the merge base, so
// only that commit's own delta is replayed. Merge commits are rejected.
//
// A clean resolution auto-commits with the original message; conflicts
// are left staged for manual resolution.
func (r *Repo) CherryPick(rev, author string) (*MergeReport, error) {
	pickHash, err := r.ResolveRef(rev)
	if err != nil {
		return nil, fmt.Errorf("cherry-pick: resolve %q: %w", rev, err)
	}
	pick, err := r.Store.ReadCommit(pickHash)
	if err != nil {
		return nil, fmt.Errorf("cherry-pick: read commit: %w", err)
	}
	if len(pick.Parents) != 1 {
		return nil, fmt.Errorf("cherry-pick: %w: commit %s has %d parents, need exactly 1",
			ErrInvalidMergeInputs, pickHash.Short(), len(pick.Parents))
	}

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return nil, fmt.Errorf("cherry-pick: resolve HEAD: %w", err)
	}

	inputs := MergeInputs{
		BaseOID:   pick.Parents[0],
		LeftOID:   headHash,
		RightOID:  pickHash,
		LeftName:  "HEAD",
		RightName: pickHash.Short(),
	}

	resolution, err := r.resolveSequenced(inputs)
	if err != nil {
		return nil, err
	}

	report := &MergeReport{Resolution: resolution}
	if !resolution.Clean {
		return report, nil
	}

	commitHash, err := r.Commit(pick.Message, author)
	if err != nil {
		return nil, fmt.Errorf("cherry-pick: commit: %w", err)
	}
	report.MergeCommit = commitHash
	return report, nil
}

// Revert applies the inverse of a single commit onto the current HEAD:
// the commit itself is the merge base and its parent the side to move
// toward, so the resolver backs the commit's delta out. Merge commits
// are rejected.
func (r *Repo) Revert(rev, author string) (*MergeReport, error) {
	revertHash, err := r.ResolveRef(rev)
	if err != nil {
		return nil, fmt.Errorf("revert: resolve %q: %w", rev, err)
	}
	c, err := r.Store.ReadCommit(revertHash)
	if err != nil {
		return nil, fmt.Errorf("revert: read commit: %w", err)
	}
	if len(c.Parents) != 1 {
		return nil, fmt.Errorf("revert: %w: commit %s has %d parents, need exactly 1",
			ErrInvalidMergeInputs, revertHash.Short(), len(c.Parents))
	}

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return nil, fmt.Errorf("revert: resolve HEAD: %w", err)
	}

	inputs := MergeInputs{
		BaseOID:   revertHash,
		LeftOID:   headHash,
		RightOID:  c.Parents[0],
		LeftName:  "HEAD",
		RightName: "parent of " + revertHash.Short(),
	}

	resolution, err := r.resolveSequenced(inputs)
	if err != nil {
		return nil, err
	}

	report := &MergeReport{Resolution: resolution}
	if !resolution.Clean {
		return report, nil
	}

	message := fmt.Sprintf("Revert %q\n\nThis reverts commit %s.", shortMessage(c.Message), revertHash)
	commitHash, err := r.Commit(message, author)
	if err != nil {
		return nil, fmt.Errorf("revert: commit: %w", err)
	}
	report.MergeCommit = commitHash
	return report, nil
}

// resolveSequenced runs the resolver with the repository's configured
// marker style, shared by cherry-pick and revert.
func (r *Repo) resolveSequenced(inputs MergeInputs) (*Resolution, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, err
	}
	resolver := NewMergeResolver(r, inputs)
	resolver.MarkerStyle = cfg.Merge.Style
	return resolver.Resolve()
}
