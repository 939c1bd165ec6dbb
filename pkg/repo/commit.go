package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jotvcs/jot/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an
// encoded signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// ErrUnresolvedConflicts blocks committing while the index holds
// conflict stages.
var ErrUnresolvedConflicts = errors.New("unresolved conflicts: fix conflicts and commit")

// Commit creates a new commit from the current staging area.
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	return r.CommitWithSigner(message, author, nil)
}

// CommitWithSigner creates a new commit and signs it when signer is
// provided. Committing is refused while any path holds conflict stages.
func (r *Repo) CommitWithSigner(message, author string, signer CommitSigner) (object.Hash, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return "", fmt.Errorf("commit: nothing staged")
	}
	if stg.HasConflict() {
		paths := stg.ConflictPaths()
		return "", fmt.Errorf("commit: %w (%s)", ErrUnresolvedConflicts, strings.Join(paths, ", "))
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// Parent may not exist for the first commit.
	var parents []object.Hash
	parentHash, err := r.ResolveRef("HEAD")
	if err == nil && parentHash != "" {
		parents = append(parents, parentHash)
	}

	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    author,
		Timestamp: time.Now().Unix(),
		Message:   message,
	}
	if signer != nil {
		payload := object.CommitSigningPayload(commitObj)
		signature, err := signer(payload)
		if err != nil {
			return "", fmt.Errorf("commit: sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	if err := r.advanceHead(commitHash); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return commitHash, nil
}

// advanceHead moves the current branch (or detached HEAD) to the given
// commit.
func (r *Repo) advanceHead(commitHash object.Hash) error {
	head, err := r.Head()
	if err != nil {
		return fmt.Errorf("read HEAD: %w", err)
	}
	if strings.HasPrefix(head, "refs/") {
		return r.UpdateRef(head, commitHash)
	}
	return r.UpdateRef("HEAD", commitHash)
}

// LogEntry pairs a commit with its own hash for history display.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks the commit history starting from the given hash, following
// first-parent links, returning up to limit commits newest first.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start

	for len(entries) < limit && current != "" {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			var objErr *object.Error
			if errors.As(err, &objErr) && objErr.Kind == object.ErrNotFound {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current.Short(), err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}

	return entries, nil
}
