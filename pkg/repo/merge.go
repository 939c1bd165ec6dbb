package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/jotvcs/jot/pkg/object"
)

// MergeReport wraps a Resolution with the repository-level outcome of
// one merge command.
type MergeReport struct {
	*Resolution
	AlreadyMerged bool
	FastForward   bool
	MergeCommit   object.Hash // set when the merge auto-committed
}

// Merge merges the named branch into the current HEAD.
//
// Fast-forward and already-merged cases short-circuit before any diff.
// A clean resolution auto-commits with two parents; conflicts leave the
// workspace and index holding the conflict state for manual resolution.
func (r *Repo) Merge(branchName, author string) (*MergeReport, error) {
	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return nil, fmt.Errorf("merge: resolve HEAD: %w", err)
	}
	branchHash, err := r.ResolveRef("refs/heads/" + branchName)
	if err != nil {
		return nil, fmt.Errorf("merge: resolve branch %q: %w", branchName, err)
	}

	baseHash, err := r.FindMergeBase(headHash, branchHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	currentBranch, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if currentBranch == "" {
		currentBranch = "HEAD"
	}

	inputs := MergeInputs{
		BaseOID:   baseHash,
		LeftOID:   headHash,
		RightOID:  branchHash,
		LeftName:  currentBranch,
		RightName: branchName,
	}

	if inputs.AlreadyMerged() {
		return &MergeReport{
			Resolution:    &Resolution{Clean: true},
			AlreadyMerged: true,
		}, nil
	}

	if inputs.FastForward() {
		branchCommit, err := r.Store.ReadCommit(branchHash)
		if err != nil {
			return nil, fmt.Errorf("merge: read branch commit: %w", err)
		}
		if err := r.materializeTree(branchCommit.TreeHash); err != nil {
			return nil, fmt.Errorf("merge: fast-forward: %w", err)
		}
		if err := r.advanceHead(branchHash); err != nil {
			return nil, fmt.Errorf("merge: fast-forward: %w", err)
		}
		return &MergeReport{
			Resolution:  &Resolution{Clean: true},
			FastForward: true,
			MergeCommit: branchHash,
		}, nil
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	resolver := NewMergeResolver(r, inputs)
	resolver.MarkerStyle = cfg.Merge.Style
	resolution, err := resolver.Resolve()
	if err != nil {
		return nil, err
	}

	report := &MergeReport{Resolution: resolution}
	if !resolution.Clean {
		return report, nil
	}

	mergeHash, err := r.commitMerge(
		fmt.Sprintf("Merge branch '%s'", branchName),
		author,
		headHash,
		branchHash,
	)
	if err != nil {
		return nil, fmt.Errorf("merge: commit: %w", err)
	}
	report.MergeCommit = mergeHash
	return report, nil
}

// commitMerge creates a commit with two parents from the current staging
// area and advances HEAD.
func (r *Repo) commitMerge(message, author string, parent1, parent2 object.Hash) (object.Hash, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}
	if stg.HasConflict() {
		return "", fmt.Errorf("merge commit: %w", ErrUnresolvedConflicts)
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}

	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   []object.Hash{parent1, parent2},
		Author:    author,
		Timestamp: time.Now().Unix(),
		Message:   message,
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("merge commit: write: %w", err)
	}
	if err := r.advanceHead(commitHash); err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}
	return commitHash, nil
}

// ResolvePath marks a conflicted path resolved using the content
// currently in the workspace, collapsing its stages to a single stage-0
// entry.
func (r *Repo) ResolvePath(path string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}

	conflicted := false
	var mode string
	for _, e := range stg.Entries[path] {
		if e.Stage > StageResolved {
			conflicted = true
			if e.Stage == StageOurs || mode == "" {
				mode = e.Mode
			}
		}
	}
	if !conflicted {
		return fmt.Errorf("resolve %q: path has no conflict", path)
	}

	data, err := r.Workspace().Read(path)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}
	blobHash, err := r.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}

	stg.ResolveConflict(path, blobHash, mode)
	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}
	return nil
}

func shortMessage(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
