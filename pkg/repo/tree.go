package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jotvcs/jot/pkg/object"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path     string
	BlobHash object.Hash
	Mode     string
}

// BuildTree converts the stage-0 staging entries into a hierarchical tree
// structure, writing TreeObj objects to the store and returning the root
// hash. Conflict entries (stage > 0) are excluded; callers refuse to
// build while conflicts remain.
func (r *Repo) BuildTree(s *Staging) (object.Hash, error) {
	files := make(map[string]*StagingEntry, len(s.Entries))
	for p := range s.Entries {
		if e := s.StageZero(p); e != nil {
			files[p] = e
		}
	}
	return r.buildTreeDir(files, "")
}

// buildTreeDir builds a TreeObj for the given directory prefix and writes
// it to the store. It returns the tree's hash.
func (r *Repo) buildTreeDir(files map[string]*StagingEntry, prefix string) (object.Hash, error) {
	// Collect direct children: files and subdirectory names.
	direct := make(map[string]*StagingEntry)
	subdirs := make(map[string]struct{})

	for p, entry := range files {
		var rel string
		if prefix == "" {
			rel = p
		} else {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}

		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			direct[rel] = entry
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(direct)+len(subdirs))
	for name := range direct {
		names = append(names, name)
	}
	for name := range subdirs {
		// A name cannot be both a file and a directory.
		if _, isFile := direct[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var entries []object.TreeEntry
	for _, name := range names {
		if entry, isFile := direct[name]; isFile {
			entries = append(entries, object.TreeEntry{
				Name:     name,
				Mode:     normalizeFileMode(entry.Mode),
				BlobHash: entry.BlobHash,
			})
		} else {
			childPrefix := name
			if prefix != "" {
				childPrefix = prefix + "/" + name
			}
			subHash, err := r.buildTreeDir(files, childPrefix)
			if err != nil {
				return "", fmt.Errorf("build tree %q: %w", childPrefix, err)
			}
			entries = append(entries, object.TreeEntry{
				Name:        name,
				IsDir:       true,
				Mode:        object.TreeModeDir,
				SubtreeHash: subHash,
			})
		}
	}

	treeObj := &object.TreeObj{Entries: entries}
	h, err := r.Store.WriteTree(treeObj)
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes).
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir {
			sub, err := r.flattenTreeRec(entry.SubtreeHash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path:     fullPath,
				BlobHash: entry.BlobHash,
				Mode:     normalizeFileMode(entry.Mode),
			})
		}
	}
	return result, nil
}
