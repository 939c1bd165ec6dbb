package repo

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jotvcs/jot/pkg/object"
)

// Entry identifies one side of a tree-diff pair: the content id and mode
// of a blob or subtree. Mode TreeModeDir marks a directory.
type Entry struct {
	OID  object.Hash
	Mode string
}

// IsDir reports whether the entry is a subtree.
func (e *Entry) IsDir() bool {
	return e != nil && e.Mode == object.TreeModeDir
}

// Equal reports whether two optional entries have the same content and
// mode. Two nils are equal.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.OID == other.OID && e.Mode == other.Mode
}

// DiffPair is the (old, new) state of a path. Never both nil.
type DiffPair struct {
	Old *Entry
	New *Entry
}

// TreeDiffMap maps changed paths to their (old, new) entry pair.
// Unchanged subtrees are pruned and contribute no entries.
type TreeDiffMap map[string]DiffPair

// Paths returns the changed paths in sorted order.
func (m TreeDiffMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// PathFilter restricts a tree diff to a set of path prefixes. A nil
// filter admits everything.
type PathFilter struct {
	prefixes []string
}

// NewPathFilter creates a filter for the given repo-relative prefixes.
func NewPathFilter(prefixes ...string) *PathFilter {
	return &PathFilter{prefixes: prefixes}
}

// Matches reports whether the path lies at or under one of the prefixes.
func (f *PathFilter) Matches(path string) bool {
	if f == nil || len(f.prefixes) == 0 {
		return true
	}
	for _, p := range f.prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// descends reports whether recursion into the directory can still reach a
// matching path.
func (f *PathFilter) descends(dir string) bool {
	if f == nil || len(f.prefixes) == 0 {
		return true
	}
	for _, p := range f.prefixes {
		if dir == p || strings.HasPrefix(dir, p+"/") || strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	return false
}

const treeCacheSize = 256

// TreeLoader reads tree objects through a small LRU cache and counts
// store loads. Each loader is owned by a single diff or merge run; cache
// state is never shared across runs.
type TreeLoader struct {
	store *object.Store
	cache *lru.Cache[object.Hash, *object.TreeObj]
	loads int
}

// NewTreeLoader creates a loader over the given store.
func NewTreeLoader(store *object.Store) *TreeLoader {
	cache, _ := lru.New[object.Hash, *object.TreeObj](treeCacheSize)
	return &TreeLoader{store: store, cache: cache}
}

// Loads returns the number of tree objects fetched from the store, cache
// misses only.
func (l *TreeLoader) Loads() int {
	return l.loads
}

func (l *TreeLoader) load(h object.Hash) (*object.TreeObj, error) {
	if tree, ok := l.cache.Get(h); ok {
		return tree, nil
	}
	tree, err := l.store.ReadTree(h)
	if err != nil {
		return nil, err
	}
	l.loads++
	l.cache.Add(h, tree)
	return tree, nil
}

// Diff recursively compares two trees, returning the map of changed
// paths. Either id may be empty, meaning an empty tree. Identical
// subtrees are pruned without loading their contents, so cost is
// proportional to the number of changed paths, not repository size.
//
// A kind change (file on one side, directory on the other) produces an
// explicit pair at the path plus the directory side's descendant leaves
// as pure adds or deletes, so callers can classify the conflict and
// still merge the descendants independently.
//
// Any object load failure aborts the diff with no partial result.
func (l *TreeLoader) Diff(oldID, newID object.Hash, filter *PathFilter) (TreeDiffMap, error) {
	out := make(TreeDiffMap)
	if oldID == newID {
		return out, nil
	}
	if err := l.diffDir(oldID, newID, "", filter, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *TreeLoader) diffDir(oldID, newID object.Hash, prefix string, filter *PathFilter, out TreeDiffMap) error {
	oldEntries, err := l.listing(oldID)
	if err != nil {
		return fmt.Errorf("tree diff %q: %w", prefix, err)
	}
	newEntries, err := l.listing(newID)
	if err != nil {
		return fmt.Errorf("tree diff %q: %w", prefix, err)
	}

	for _, name := range unionNames(oldEntries, newEntries) {
		childPath := name
		if prefix != "" {
			childPath = prefix + "/" + name
		}

		oldEntry := oldEntries[name]
		newEntry := newEntries[name]

		switch {
		case oldEntry == nil:
			if err := l.emitSide(newEntry, childPath, filter, out, false); err != nil {
				return err
			}
		case newEntry == nil:
			if err := l.emitSide(oldEntry, childPath, filter, out, true); err != nil {
				return err
			}
		case oldEntry.Equal(newEntry):
			// Identical id and mode: prune, do not descend.
		case oldEntry.IsDir() && newEntry.IsDir():
			if !filter.descends(childPath) {
				continue
			}
			if err := l.diffDir(oldEntry.OID, newEntry.OID, childPath, filter, out); err != nil {
				return err
			}
		case !oldEntry.IsDir() && !newEntry.IsDir():
			if filter.Matches(childPath) {
				out[childPath] = DiffPair{Old: oldEntry, New: newEntry}
			}
		default:
			// Kind change: surface the pair at the path, then expand the
			// directory side's leaves.
			if filter.Matches(childPath) {
				out[childPath] = DiffPair{Old: oldEntry, New: newEntry}
			}
			if oldEntry.IsDir() {
				if err := l.emitLeaves(oldEntry.OID, childPath, filter, out, true); err != nil {
					return err
				}
			} else {
				if err := l.emitLeaves(newEntry.OID, childPath, filter, out, false); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// emitSide records an entry present on only one side. Subtrees expand to
// their descendant leaves.
func (l *TreeLoader) emitSide(e *Entry, path string, filter *PathFilter, out TreeDiffMap, deleted bool) error {
	if e.IsDir() {
		return l.emitLeaves(e.OID, path, filter, out, deleted)
	}
	if !filter.Matches(path) {
		return nil
	}
	if deleted {
		out[path] = DiffPair{Old: e}
	} else {
		out[path] = DiffPair{New: e}
	}
	return nil
}

// emitLeaves walks a subtree, recording every descendant leaf as a pure
// add or delete.
func (l *TreeLoader) emitLeaves(treeID object.Hash, prefix string, filter *PathFilter, out TreeDiffMap, deleted bool) error {
	if !filter.descends(prefix) {
		return nil
	}
	tree, err := l.load(treeID)
	if err != nil {
		return fmt.Errorf("tree diff %q: %w", prefix, err)
	}
	for _, te := range tree.Entries {
		childPath := prefix + "/" + te.Name
		child := entryFromTree(te)
		if err := l.emitSide(child, childPath, filter, out, deleted); err != nil {
			return err
		}
	}
	return nil
}

// listing loads a tree's direct children as name → Entry. An empty id
// yields an empty listing.
func (l *TreeLoader) listing(id object.Hash) (map[string]*Entry, error) {
	if id == "" {
		return nil, nil
	}
	tree, err := l.load(id)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]*Entry, len(tree.Entries))
	for _, te := range tree.Entries {
		entries[te.Name] = entryFromTree(te)
	}
	return entries, nil
}

func entryFromTree(te object.TreeEntry) *Entry {
	if te.IsDir {
		return &Entry{OID: te.SubtreeHash, Mode: object.TreeModeDir}
	}
	return &Entry{OID: te.BlobHash, Mode: normalizeFileMode(te.Mode)}
}

func unionNames(a, b map[string]*Entry) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		seen[name] = struct{}{}
	}
	for name := range b {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TreeDiff compares two trees with a fresh loader. Callers that need the
// load counter or want to share the cache across two diffs construct a
// TreeLoader directly.
func (r *Repo) TreeDiff(oldID, newID object.Hash, filter *PathFilter) (TreeDiffMap, error) {
	return NewTreeLoader(r.Store).Diff(oldID, newID, filter)
}
