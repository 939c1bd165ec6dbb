package repo

import (
	"testing"

	"github.com/jotvcs/jot/pkg/object"
)

// treeBuilder writes blobs and trees straight into a store so diffs can
// be tested against hand-built structures.
type treeBuilder struct {
	t     *testing.T
	store *object.Store
}

func newTreeBuilder(t *testing.T) *treeBuilder {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return &treeBuilder{t: t, store: r.Store}
}

func (b *treeBuilder) blob(content string) object.Hash {
	b.t.Helper()
	h, err := b.store.WriteBlob(&object.Blob{Data: []byte(content)})
	if err != nil {
		b.t.Fatalf("WriteBlob: %v", err)
	}
	return h
}

func (b *treeBuilder) tree(entries ...object.TreeEntry) object.Hash {
	b.t.Helper()
	h, err := b.store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		b.t.Fatalf("WriteTree: %v", err)
	}
	return h
}

func file(name string, h object.Hash) object.TreeEntry {
	return object.TreeEntry{Name: name, Mode: object.TreeModeFile, BlobHash: h}
}

func subdir(name string, h object.Hash) object.TreeEntry {
	return object.TreeEntry{Name: name, IsDir: true, Mode: object.TreeModeDir, SubtreeHash: h}
}

func TestTreeDiff_PrunesUnchangedSubtrees(t *testing.T) {
	b := newTreeBuilder(t)

	// A large shared subtree that never changes.
	sharedLeaf := b.tree(file("x.txt", b.blob("x")), file("y.txt", b.blob("y")))
	shared := b.tree(subdir("deep", sharedLeaf), file("z.txt", b.blob("z")))

	oldRoot := b.tree(
		subdir("lib", shared),
		file("main.txt", b.blob("old main")),
	)
	newRoot := b.tree(
		subdir("lib", shared),
		file("main.txt", b.blob("new main")),
	)

	loader := NewTreeLoader(b.store)
	changes, err := loader.Diff(oldRoot, newRoot, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if got := changes.Paths(); len(got) != 1 || got[0] != "main.txt" {
		t.Errorf("changed paths = %v, want [main.txt]", got)
	}
	if _, ok := changes["lib/deep/x.txt"]; ok {
		t.Error("unchanged subtree leaked into the diff")
	}

	// Only the two roots are ever loaded; the shared subtree is pruned by
	// id without being read.
	if loader.Loads() != 2 {
		t.Errorf("tree loads = %d, want 2 (roots only)", loader.Loads())
	}
}

func TestTreeDiff_IdenticalRootsShortCircuit(t *testing.T) {
	b := newTreeBuilder(t)
	root := b.tree(file("a.txt", b.blob("a")))

	loader := NewTreeLoader(b.store)
	changes, err := loader.Diff(root, root, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("diff of identical trees = %v, want empty", changes.Paths())
	}
	if loader.Loads() != 0 {
		t.Errorf("tree loads = %d, want 0", loader.Loads())
	}
}

func TestTreeDiff_AddAndDeleteSubtreesExpand(t *testing.T) {
	b := newTreeBuilder(t)

	goneTree := b.tree(file("old1.txt", b.blob("o1")), file("old2.txt", b.blob("o2")))
	addedTree := b.tree(file("new1.txt", b.blob("n1")))

	oldRoot := b.tree(subdir("gone", goneTree))
	newRoot := b.tree(subdir("added", addedTree))

	changes, err := NewTreeLoader(b.store).Diff(oldRoot, newRoot, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	wantPaths := []string{"added/new1.txt", "gone/old1.txt", "gone/old2.txt"}
	got := changes.Paths()
	if len(got) != len(wantPaths) {
		t.Fatalf("changed paths = %v, want %v", got, wantPaths)
	}
	for i, p := range wantPaths {
		if got[i] != p {
			t.Fatalf("changed paths = %v, want %v", got, wantPaths)
		}
	}

	if pair := changes["added/new1.txt"]; pair.Old != nil || pair.New == nil {
		t.Errorf("added leaf pair = %+v, want pure add", pair)
	}
	if pair := changes["gone/old1.txt"]; pair.Old == nil || pair.New != nil {
		t.Errorf("deleted leaf pair = %+v, want pure delete", pair)
	}
}

func TestTreeDiff_KindChangeEmitsPairAndLeaves(t *testing.T) {
	b := newTreeBuilder(t)

	fileHash := b.blob("I was a file")
	dirTree := b.tree(file("inner.txt", b.blob("inner")))

	oldRoot := b.tree(file("c", fileHash))
	newRoot := b.tree(subdir("c", dirTree))

	changes, err := NewTreeLoader(b.store).Diff(oldRoot, newRoot, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	pair, ok := changes["c"]
	if !ok {
		t.Fatal("kind change must emit a pair at the path itself")
	}
	if pair.Old == nil || pair.Old.IsDir() {
		t.Errorf("old side = %+v, want file entry", pair.Old)
	}
	if pair.New == nil || !pair.New.IsDir() {
		t.Errorf("new side = %+v, want directory entry", pair.New)
	}

	inner, ok := changes["c/inner.txt"]
	if !ok {
		t.Fatal("directory side's leaves must be emitted as adds")
	}
	if inner.Old != nil || inner.New == nil {
		t.Errorf("descendant pair = %+v, want pure add", inner)
	}
}

func TestTreeDiff_ModeOnlyChange(t *testing.T) {
	b := newTreeBuilder(t)

	h := b.blob("#!/bin/sh\n")
	oldRoot := b.tree(object.TreeEntry{Name: "run.sh", Mode: object.TreeModeFile, BlobHash: h})
	newRoot := b.tree(object.TreeEntry{Name: "run.sh", Mode: object.TreeModeExecutable, BlobHash: h})

	changes, err := NewTreeLoader(b.store).Diff(oldRoot, newRoot, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	pair, ok := changes["run.sh"]
	if !ok {
		t.Fatal("mode change must appear in the diff")
	}
	if pair.Old.Mode != object.TreeModeFile || pair.New.Mode != object.TreeModeExecutable {
		t.Errorf("modes = %s -> %s", pair.Old.Mode, pair.New.Mode)
	}
	if pair.Old.OID != pair.New.OID {
		t.Error("content id must be unchanged for a mode-only change")
	}
}

func TestTreeDiff_PathFilter(t *testing.T) {
	b := newTreeBuilder(t)

	oldRoot := b.tree(
		subdir("docs", b.tree(file("a.md", b.blob("a")))),
		subdir("src", b.tree(file("main.txt", b.blob("v1")))),
	)
	newRoot := b.tree(
		subdir("docs", b.tree(file("a.md", b.blob("a changed")))),
		subdir("src", b.tree(file("main.txt", b.blob("v2")))),
	)

	changes, err := NewTreeLoader(b.store).Diff(oldRoot, newRoot, NewPathFilter("src"))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if got := changes.Paths(); len(got) != 1 || got[0] != "src/main.txt" {
		t.Errorf("filtered paths = %v, want [src/main.txt]", got)
	}
}

func TestTreeDiff_EmptyTreeSides(t *testing.T) {
	b := newTreeBuilder(t)
	root := b.tree(file("a.txt", b.blob("a")))

	adds, err := NewTreeLoader(b.store).Diff("", root, nil)
	if err != nil {
		t.Fatalf("Diff(empty, root): %v", err)
	}
	if pair := adds["a.txt"]; pair.Old != nil || pair.New == nil {
		t.Errorf("pair = %+v, want pure add", pair)
	}

	dels, err := NewTreeLoader(b.store).Diff(root, "", nil)
	if err != nil {
		t.Fatalf("Diff(root, empty): %v", err)
	}
	if pair := dels["a.txt"]; pair.Old == nil || pair.New != nil {
		t.Errorf("pair = %+v, want pure delete", pair)
	}
}
