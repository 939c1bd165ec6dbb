package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jotvcs/jot/pkg/diff"
	"github.com/jotvcs/jot/pkg/object"
)

// DiffWorktree produces unified-diff output for changes between the
// index and the working tree. With paths given, output is limited to
// those prefixes.
func (r *Repo) DiffWorktree(paths []string) (string, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}

	filter := filterFromArgs(r, paths)
	ws := r.Workspace()

	var sb strings.Builder
	for _, path := range sortedEntryPaths(stg) {
		if !filter.Matches(path) {
			continue
		}
		se := stg.StageZero(path)
		if se == nil {
			continue
		}

		staged, err := r.Store.ReadBlob(se.BlobHash)
		if err != nil {
			return "", fmt.Errorf("diff %q: %w", path, err)
		}

		var work []byte
		if ws.Exists(path) {
			work, err = ws.Read(path)
			if err != nil {
				return "", fmt.Errorf("diff %q: %w", path, err)
			}
		}

		if isBinary(staged.Data) || isBinary(work) {
			if object.HashObject(object.TypeBlob, work) != se.BlobHash {
				fmt.Fprintf(&sb, "Binary files a/%s and b/%s differ\n", path, path)
			}
			continue
		}

		sb.WriteString(diff.FormatUnified(path, path, staged.Data, work))
	}
	return sb.String(), nil
}

// DiffCommits produces unified-diff output for the change between two
// commits, using the tree diff so unchanged subtrees are never loaded.
func (r *Repo) DiffCommits(oldRev, newRev string, paths []string) (string, error) {
	oldTree, err := r.treeOfRev(oldRev)
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}
	newTree, err := r.treeOfRev(newRev)
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}

	changes, err := r.TreeDiff(oldTree, newTree, filterFromArgs(r, paths))
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}

	var sb strings.Builder
	for _, path := range changes.Paths() {
		pair := changes[path]
		oldData, err := r.entryContent(pair.Old)
		if err != nil {
			return "", fmt.Errorf("diff %q: %w", path, err)
		}
		newData, err := r.entryContent(pair.New)
		if err != nil {
			return "", fmt.Errorf("diff %q: %w", path, err)
		}

		if isBinary(oldData) || isBinary(newData) {
			fmt.Fprintf(&sb, "Binary files a/%s and b/%s differ\n", path, path)
			continue
		}
		sb.WriteString(diff.FormatUnified(path, path, oldData, newData))
	}
	return sb.String(), nil
}

func (r *Repo) treeOfRev(rev string) (object.Hash, error) {
	h, err := r.ResolveRef(rev)
	if err != nil {
		return "", err
	}
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return "", err
	}
	return c.TreeHash, nil
}

// entryContent returns the blob content of a diff entry; nil entries and
// directories contribute empty content.
func (r *Repo) entryContent(e *Entry) ([]byte, error) {
	if e == nil || e.IsDir() {
		return nil, nil
	}
	blob, err := r.Store.ReadBlob(e.OID)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

func filterFromArgs(r *Repo, paths []string) *PathFilter {
	if len(paths) == 0 {
		return nil
	}
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := r.repoRelPath(p)
		if err != nil {
			rel = p
		}
		rels = append(rels, rel)
	}
	return NewPathFilter(rels...)
}

func sortedEntryPaths(stg *Staging) []string {
	paths := make([]string, 0, len(stg.Entries))
	for p := range stg.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
