package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStore_WriteReadBlob(t *testing.T) {
	s := newTestStore(t)

	data := []byte("hello, store\n")
	h, err := s.WriteBlob(&Blob{Data: data})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if !h.Valid() {
		t.Fatalf("WriteBlob returned malformed hash %q", h)
	}

	b, err := s.ReadBlob(h)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if !bytes.Equal(b.Data, data) {
		t.Errorf("ReadBlob = %q, want %q", b.Data, data)
	}
}

func TestStore_WriteIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	h1, err := s.WriteBlob(&Blob{Data: []byte("same")})
	if err != nil {
		t.Fatalf("first WriteBlob: %v", err)
	}
	h2, err := s.WriteBlob(&Blob{Data: []byte("same")})
	if err != nil {
		t.Fatalf("second WriteBlob: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hashes differ: %s vs %s", h1, h2)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	s := newTestStore(t)

	missing := HashBytes([]byte("never stored"))
	_, _, err := s.Read(missing)
	if err == nil {
		t.Fatal("expected error for missing object")
	}

	var objErr *Error
	if !errors.As(err, &objErr) {
		t.Fatalf("expected *object.Error, got %T: %v", err, err)
	}
	if objErr.Kind != ErrNotFound {
		t.Errorf("Kind = %v, want ErrNotFound", objErr.Kind)
	}
	if !errors.Is(err, &Error{Kind: ErrNotFound}) {
		t.Error("errors.Is(err, ErrNotFound) = false")
	}
}

func TestStore_ReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	h, err := s.WriteBlob(&Blob{Data: []byte("will be trashed")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	// Overwrite the stored object with bytes that are not valid zstd.
	p := filepath.Join(dir, "objects", string(h[:2]), string(h[2:]))
	if err := os.WriteFile(p, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("overwrite object: %v", err)
	}

	_, _, err = s.Read(h)
	if !errors.Is(err, &Error{Kind: ErrCorrupt}) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestStore_TypeMismatch(t *testing.T) {
	s := newTestStore(t)

	h, err := s.WriteBlob(&Blob{Data: []byte("blob data")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	if _, err := s.ReadTree(h); !errors.Is(err, &Error{Kind: ErrCorrupt}) {
		t.Errorf("ReadTree on blob: expected ErrCorrupt, got %v", err)
	}
	if _, err := s.ReadCommit(h); !errors.Is(err, &Error{Kind: ErrCorrupt}) {
		t.Errorf("ReadCommit on blob: expected ErrCorrupt, got %v", err)
	}
}

func TestStore_CompressedOnDisk(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	// Highly compressible payload.
	data := bytes.Repeat([]byte("abcdefgh"), 4096)
	h, err := s.WriteBlob(&Blob{Data: data})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "objects", string(h[:2]), string(h[2:])))
	if err != nil {
		t.Fatalf("stat object: %v", err)
	}
	if info.Size() >= int64(len(data)) {
		t.Errorf("on-disk size %d not smaller than payload %d", info.Size(), len(data))
	}
}

func TestStore_TreeRoundTrip(t *testing.T) {
	s := newTestStore(t)

	blobHash, err := s.WriteBlob(&Blob{Data: []byte("content")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	tr := &TreeObj{Entries: []TreeEntry{
		{Name: "a.txt", Mode: TreeModeFile, BlobHash: blobHash},
		{Name: "run.sh", Mode: TreeModeExecutable, BlobHash: blobHash},
	}}
	th, err := s.WriteTree(tr)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	parent := &TreeObj{Entries: []TreeEntry{
		{Name: "sub", IsDir: true, Mode: TreeModeDir, SubtreeHash: th},
	}}
	ph, err := s.WriteTree(parent)
	if err != nil {
		t.Fatalf("WriteTree parent: %v", err)
	}

	got, err := s.ReadTree(ph)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(got.Entries) != 1 || !got.Entries[0].IsDir || got.Entries[0].SubtreeHash != th {
		t.Errorf("parent tree round-trip mismatch: %+v", got.Entries)
	}

	sub, err := s.ReadTree(got.Entries[0].SubtreeHash)
	if err != nil {
		t.Fatalf("ReadTree sub: %v", err)
	}
	if len(sub.Entries) != 2 {
		t.Fatalf("sub tree has %d entries, want 2", len(sub.Entries))
	}
	if sub.Entries[1].Mode != TreeModeExecutable {
		t.Errorf("run.sh mode = %q, want %q", sub.Entries[1].Mode, TreeModeExecutable)
	}
}

func TestStore_CommitRoundTrip(t *testing.T) {
	s := newTestStore(t)

	c := &CommitObj{
		TreeHash:  HashBytes([]byte("tree")),
		Parents:   []Hash{HashBytes([]byte("p1")), HashBytes([]byte("p2"))},
		Author:    "alice",
		Timestamp: 1700000000,
		Message:   "merge branch 'topic'\n\nbody line\n",
	}
	h, err := s.WriteCommit(c)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	got, err := s.ReadCommit(h)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if got.TreeHash != c.TreeHash || len(got.Parents) != 2 || got.Author != "alice" {
		t.Errorf("commit round-trip mismatch: %+v", got)
	}
	if got.Message != c.Message {
		t.Errorf("message = %q, want %q", got.Message, c.Message)
	}
}
