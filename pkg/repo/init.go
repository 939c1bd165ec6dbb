package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jotvcs/jot/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Init creates a new Jot repository at path. It creates the .jot/
// directory structure: HEAD, objects/, refs/heads/, and a default
// config.toml. Returns an error if a .jot/ directory already exists.
func Init(path string) (*Repo, error) {
	jotDir := filepath.Join(path, ".jot")

	if _, err := os.Stat(jotDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", jotDir)
	}

	dirs := []string{
		filepath.Join(jotDir, "objects"),
		filepath.Join(jotDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	r := &Repo{
		RootDir: path,
		JotDir:  jotDir,
		Store:   object.NewStore(jotDir),
	}

	cfg := DefaultConfig()
	if err := r.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	headPath := filepath.Join(jotDir, "HEAD")
	headContent := "ref: refs/heads/" + cfg.Core.DefaultBranch + "\n"
	if err := os.WriteFile(headPath, []byte(headContent), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return r, nil
}

// Open searches upward from path for a .jot/ directory and opens the
// repository. Returns an error if no .jot/ directory is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		jotDir := filepath.Join(cur, ".jot")
		info, err := os.Stat(jotDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir: cur,
				JotDir:  jotDir,
				Store:   object.NewStore(jotDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a jot repository (or any parent up to /)")
		}
		cur = parent
	}
}

// Head reads .jot/HEAD. If the content starts with "ref: ", it returns
// the ref path (e.g. "refs/heads/main"). Otherwise it returns the raw
// content as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.JotDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. "HEAD" reads HEAD; symbolic refs resolve recursively.
//  2. Names starting with "refs/" read .jot/<name>.
//  3. Otherwise "refs/heads/<name>" is tried, then the name as a raw
//     hash if it looks like one.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		return object.Hash(head), nil
	}

	var refPath string
	if strings.HasPrefix(name, "refs/") {
		refPath = filepath.Join(r.JotDir, filepath.FromSlash(name))
	} else {
		refPath = filepath.Join(r.JotDir, "refs", "heads", name)
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			if h := object.Hash(name); h.Valid() && r.Store.Has(h) {
				return h, nil
			}
		}
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return object.Hash(strings.TrimRight(string(data), "\n")), nil
}

// UpdateRef writes a hash to the named ref file under .jot/ using
// lockfile + rename semantics. Parent directories are created as needed.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	refPath := filepath.Join(r.JotDir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		lockFile.Close()
		os.Remove(lockPath)
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		os.Remove(lockPath)
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}

	if err := os.Rename(lockPath, refPath); err != nil {
		os.Remove(lockPath)
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}
