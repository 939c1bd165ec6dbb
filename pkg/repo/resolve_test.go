package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jotvcs/jot/pkg/object"
)

func TestResolve_ConflictStages(t *testing.T) {
	r, dir := setupMergeRepo(t)

	baseHash, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	baseCommit, err := r.Store.ReadCommit(baseHash)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}

	writeWorkFile(t, dir, "a.txt", "1\nMAIN\n3\n")
	addAndCommit(t, r, []string{"a.txt"}, "main edit")

	checkout(t, r, "feature")
	writeWorkFile(t, dir, "a.txt", "1\nFEATURE\n3\n")
	addAndCommit(t, r, []string{"a.txt"}, "feature edit")

	checkout(t, r, "main")
	report, err := r.Merge("feature", "test-author")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Clean {
		t.Fatal("expected conflict")
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}

	// All three stages populated, no stage 0.
	if stg.StageZero("a.txt") != nil {
		t.Error("conflicted path must not hold a stage-0 entry")
	}
	baseEntry := stg.StageEntry("a.txt", StageBase)
	ours := stg.StageEntry("a.txt", StageOurs)
	theirs := stg.StageEntry("a.txt", StageTheirs)
	if baseEntry == nil || ours == nil || theirs == nil {
		t.Fatalf("missing conflict stages: base=%v ours=%v theirs=%v", baseEntry, ours, theirs)
	}

	// Stage 1 is the common ancestor's blob.
	baseTree, err := r.Store.ReadTree(baseCommit.TreeHash)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	var wantBase object.Hash
	for _, e := range baseTree.Entries {
		if e.Name == "a.txt" {
			wantBase = e.OID()
		}
	}
	if baseEntry.BlobHash != wantBase {
		t.Errorf("stage-1 blob = %s, want ancestor blob %s", baseEntry.BlobHash.Short(), wantBase.Short())
	}

	oursBlob, err := r.Store.ReadBlob(ours.BlobHash)
	if err != nil {
		t.Fatalf("ReadBlob(ours): %v", err)
	}
	if string(oursBlob.Data) != "1\nMAIN\n3\n" {
		t.Errorf("stage-2 content = %q", oursBlob.Data)
	}
	theirsBlob, err := r.Store.ReadBlob(theirs.BlobHash)
	if err != nil {
		t.Fatalf("ReadBlob(theirs): %v", err)
	}
	if string(theirsBlob.Data) != "1\nFEATURE\n3\n" {
		t.Errorf("stage-3 content = %q", theirsBlob.Data)
	}
}

func TestResolve_ModifyDelete(t *testing.T) {
	r, dir := setupMergeRepo(t)

	writeWorkFile(t, dir, "b.txt", "shared\n")
	addAndCommit(t, r, []string{"b.txt"}, "add b.txt")

	// Re-branch feature at the commit that has b.txt.
	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if err := r.UpdateRef("refs/heads/feature", headHash); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	// Main deletes b.txt; feature modifies it.
	if err := r.RemoveFiles([]string{"b.txt"}); err != nil {
		t.Fatalf("RemoveFiles: %v", err)
	}
	if _, err := r.Commit("delete b.txt", "test-author"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	checkout(t, r, "feature")
	writeWorkFile(t, dir, "b.txt", "shared, modified\n")
	addAndCommit(t, r, []string{"b.txt"}, "modify b.txt")

	checkout(t, r, "main")
	report, err := r.Merge("feature", "test-author")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Clean {
		t.Fatal("modify/delete must conflict")
	}

	// The surviving side's content sits in the workspace without markers.
	content := readWorkFile(t, dir, "b.txt")
	if content != "shared, modified\n" {
		t.Errorf("workspace b.txt = %q, want survivor content", content)
	}
	if strings.Contains(content, "<<<<<<<") {
		t.Error("modify/delete conflict must not carry markers")
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if stg.StageEntry("b.txt", StageBase) == nil {
		t.Error("stage 1 (base) missing")
	}
	if stg.StageEntry("b.txt", StageOurs) != nil {
		t.Error("stage 2 must be absent: our side deleted the file")
	}
	if stg.StageEntry("b.txt", StageTheirs) == nil {
		t.Error("stage 3 (survivor) missing")
	}
	if stg.StageZero("b.txt") != nil {
		t.Error("conflicted path must not hold a stage-0 entry")
	}
}

func TestResolve_FileDirectoryKindChange(t *testing.T) {
	r, dir := setupMergeRepo(t)

	writeWorkFile(t, dir, "c", "I am a file\n")
	addAndCommit(t, r, []string{"c"}, "add file c")

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if err := r.UpdateRef("refs/heads/feature", headHash); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	// Main edits the file; feature replaces it with a directory.
	writeWorkFile(t, dir, "c", "I am a file, edited\n")
	addAndCommit(t, r, []string{"c"}, "edit file c")

	checkout(t, r, "feature")
	if err := r.RemoveFiles([]string{"c"}); err != nil {
		t.Fatalf("RemoveFiles: %v", err)
	}
	writeWorkFile(t, dir, "c/d.txt", "inside the directory\n")
	addAndCommit(t, r, []string{"c/d.txt"}, "replace c with a directory")

	checkout(t, r, "main")
	report, err := r.Merge("feature", "test-author")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Clean {
		t.Fatal("file/directory kind change must conflict")
	}

	// Our file content moves to the disambiguated path named after the
	// branch that introduced the directory.
	moved := readWorkFile(t, dir, "c~feature")
	if moved != "I am a file, edited\n" {
		t.Errorf("c~feature = %q, want our edited file content", moved)
	}

	// The directory's own leaf lands cleanly.
	if got := readWorkFile(t, dir, "c/d.txt"); got != "inside the directory\n" {
		t.Errorf("c/d.txt = %q", got)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if stg.StageEntry("c", StageBase) == nil ||
		stg.StageEntry("c", StageOurs) == nil ||
		stg.StageEntry("c", StageTheirs) == nil {
		t.Error("path c must be staged three-way")
	}
	if e := stg.StageEntry("c", StageTheirs); e != nil && e.Mode != object.TreeModeDir {
		t.Errorf("stage-3 mode = %q, want directory mode", e.Mode)
	}
	if stg.StageZero("c/d.txt") == nil {
		t.Error("c/d.txt must be staged at stage 0")
	}

	// The disambiguated copy stays untracked.
	if len(stg.Entries["c~feature"]) != 0 {
		t.Error("c~feature must not be staged")
	}
}

func TestResolve_AddAddIdentical(t *testing.T) {
	r, dir := setupMergeRepo(t)

	writeWorkFile(t, dir, "new.txt", "same on both sides\n")
	addAndCommit(t, r, []string{"new.txt"}, "add new.txt on main")

	checkout(t, r, "feature")
	writeWorkFile(t, dir, "new.txt", "same on both sides\n")
	addAndCommit(t, r, []string{"new.txt"}, "add new.txt on feature")

	checkout(t, r, "main")
	report, err := r.Merge("feature", "test-author")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !report.Clean {
		t.Fatalf("identical add/add must merge cleanly, conflicts: %v", report.ConflictPaths)
	}
	if got := readWorkFile(t, dir, "new.txt"); got != "same on both sides\n" {
		t.Errorf("new.txt = %q", got)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	entries := stg.Entries["new.txt"]
	if len(entries) != 1 || entries[0].Stage != StageResolved {
		t.Errorf("new.txt entries = %+v, want a single stage-0 entry", entries)
	}
}

func TestResolve_AddAddDifferent(t *testing.T) {
	r, dir := setupMergeRepo(t)

	writeWorkFile(t, dir, "new.txt", "main version\n")
	addAndCommit(t, r, []string{"new.txt"}, "add new.txt on main")

	checkout(t, r, "feature")
	writeWorkFile(t, dir, "new.txt", "feature version\n")
	addAndCommit(t, r, []string{"new.txt"}, "add new.txt on feature")

	checkout(t, r, "main")
	report, err := r.Merge("feature", "test-author")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Clean {
		t.Fatal("diverging add/add must conflict")
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	// No common ancestor version, so stage 1 is absent.
	if stg.StageEntry("new.txt", StageBase) != nil {
		t.Error("stage 1 must be absent for add/add")
	}
	if stg.StageEntry("new.txt", StageOurs) == nil ||
		stg.StageEntry("new.txt", StageTheirs) == nil {
		t.Error("stages 2 and 3 must both be present")
	}
}

func TestResolve_BinaryConflictKeepsOurs(t *testing.T) {
	r, dir := setupMergeRepo(t)

	base := "BIN\x00base\n"
	writeWorkFile(t, dir, "img.bin", base)
	addAndCommit(t, r, []string{"img.bin"}, "add binary")

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if err := r.UpdateRef("refs/heads/feature", headHash); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	writeWorkFile(t, dir, "img.bin", "BIN\x00ours\n")
	addAndCommit(t, r, []string{"img.bin"}, "main edit")

	checkout(t, r, "feature")
	writeWorkFile(t, dir, "img.bin", "BIN\x00theirs\n")
	addAndCommit(t, r, []string{"img.bin"}, "feature edit")

	checkout(t, r, "main")
	report, err := r.Merge("feature", "test-author")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Clean {
		t.Fatal("binary divergence must conflict")
	}

	// No textual markers; our version stays in the workspace.
	data, err := os.ReadFile(filepath.Join(dir, "img.bin"))
	if err != nil {
		t.Fatalf("read img.bin: %v", err)
	}
	if string(data) != "BIN\x00ours\n" {
		t.Errorf("workspace binary = %q, want our version untouched", data)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if !stg.HasConflict() {
		t.Error("binary conflict must be staged three-way")
	}
}

func TestResolve_ReportCounts(t *testing.T) {
	r, dir := setupMergeRepo(t)

	writeWorkFile(t, dir, "a.txt", "1\nMAIN\n3\n")
	writeWorkFile(t, dir, "clean.txt", "main adds this\n")
	addAndCommit(t, r, []string{"a.txt", "clean.txt"}, "main edits")

	checkout(t, r, "feature")
	writeWorkFile(t, dir, "a.txt", "1\nFEATURE\n3\n")
	addAndCommit(t, r, []string{"a.txt"}, "feature edit")

	checkout(t, r, "main")

	report, err := r.Merge("feature", "test-author")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	var seen []string
	for _, f := range report.Files {
		seen = append(seen, f.Path+":"+f.Status)
	}

	if report.TotalConflicts != 1 {
		t.Errorf("TotalConflicts = %d, want 1", report.TotalConflicts)
	}
	want := []string{"a.txt:conflict", "clean.txt:added"}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("file reports = %v, want %v", seen, want)
	}
}
