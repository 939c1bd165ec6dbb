package repo

import (
	"testing"
)

func statusOf(t *testing.T, r *Repo, path string) (StatusEntry, bool) {
	t.Helper()
	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}
	return StatusEntry{}, false
}

func TestStatus_UntrackedNewAndClean(t *testing.T) {
	r, dir := setupMergeRepo(t)

	writeWorkFile(t, dir, "loose.txt", "not staged\n")
	e, ok := statusOf(t, r, "loose.txt")
	if !ok || e.WorkStatus != StatusUntracked {
		t.Errorf("loose.txt status = %+v, want untracked", e)
	}

	if err := r.Add([]string{"loose.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	e, ok = statusOf(t, r, "loose.txt")
	if !ok || e.IndexStatus != StatusNew {
		t.Errorf("loose.txt status = %+v, want new in index", e)
	}

	if _, err := r.Commit("add loose.txt", "test-author"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	e, ok = statusOf(t, r, "loose.txt")
	if !ok || e.IndexStatus != StatusClean || e.WorkStatus != StatusClean {
		t.Errorf("loose.txt status = %+v, want clean/clean", e)
	}
}

func TestStatus_DirtyAndModified(t *testing.T) {
	r, dir := setupMergeRepo(t)

	// Edit without staging: dirty worktree, clean index.
	writeWorkFile(t, dir, "a.txt", "edited\n")
	e, ok := statusOf(t, r, "a.txt")
	if !ok || e.WorkStatus != StatusDirty {
		t.Errorf("a.txt status = %+v, want dirty worktree", e)
	}
	if e.IndexStatus != StatusClean {
		t.Errorf("a.txt index status = %v, want clean", e.IndexStatus)
	}

	// Stage it: modified vs HEAD, clean worktree.
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	e, ok = statusOf(t, r, "a.txt")
	if !ok || e.IndexStatus != StatusModified || e.WorkStatus != StatusClean {
		t.Errorf("a.txt status = %+v, want modified/clean", e)
	}
}

func TestStatus_DeletedFromWorktree(t *testing.T) {
	r, _ := setupMergeRepo(t)

	if err := r.Workspace().Remove("a.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	e, ok := statusOf(t, r, "a.txt")
	if !ok || e.WorkStatus != StatusDeleted {
		t.Errorf("a.txt status = %+v, want deleted from worktree", e)
	}
}

func TestStatus_ConflictOnBothAxes(t *testing.T) {
	r, dir := setupMergeRepo(t)

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

	e, ok := statusOf(t, r, "a.txt")
	if !ok || e.IndexStatus != StatusConflict || e.WorkStatus != StatusConflict {
		t.Errorf("a.txt status = %+v, want conflict on both axes", e)
	}
}

func TestStatus_IgnoredFilesInvisible(t *testing.T) {
	r, dir := setupMergeRepo(t)

	writeWorkFile(t, dir, ".jotignore", "*.log\n")
	writeWorkFile(t, dir, "debug.log", "noise\n")

	if _, ok := statusOf(t, r, "debug.log"); ok {
		t.Error("ignored files must not appear in status")
	}
}
