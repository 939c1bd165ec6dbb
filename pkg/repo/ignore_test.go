package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func newIgnoreChecker(t *testing.T, lines string) *IgnoreChecker {
	t.Helper()
	dir := t.TempDir()
	if lines != "" {
		if err := os.WriteFile(filepath.Join(dir, ".jotignore"), []byte(lines), 0o644); err != nil {
			t.Fatalf("write .jotignore: %v", err)
		}
	}
	return NewIgnoreChecker(dir)
}

func TestIgnore_BuiltIns(t *testing.T) {
	ic := newIgnoreChecker(t, "")

	for _, path := range []string{".jot", ".jot/index", ".jot/objects/ab/cdef", ".git", ".git/HEAD"} {
		if !ic.IsIgnored(path) {
			t.Errorf("IsIgnored(%q) = false, want true", path)
		}
	}
	if ic.IsIgnored("src/main.txt") {
		t.Error("normal paths must not be ignored by default")
	}
}

func TestIgnore_GlobPatterns(t *testing.T) {
	ic := newIgnoreChecker(t, "*.log\ntmp-*\n")

	cases := []struct {
		path string
		want bool
	}{
		{"debug.log", true},
		{"logs/deep/trace.log", true}, // slash-less patterns match the basename anywhere
		{"debug.log.txt", false},
		{"tmp-scratch", true},
		{"notes.txt", false},
	}
	for _, tc := range cases {
		if got := ic.IsIgnored(tc.path); got != tc.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIgnore_DirectoryPatterns(t *testing.T) {
	ic := newIgnoreChecker(t, "build/\n")

	for _, path := range []string{"build", "build/out.bin", "build/nested/deep.o", "src/build/gen.txt"} {
		if !ic.IsIgnored(path) {
			t.Errorf("IsIgnored(%q) = false, want true", path)
		}
	}
	if ic.IsIgnored("build.txt") {
		t.Error("directory pattern must not match a plain file of the same stem")
	}
}

func TestIgnore_NegationLastMatchWins(t *testing.T) {
	ic := newIgnoreChecker(t, "*.log\n!important.log\n")

	if !ic.IsIgnored("debug.log") {
		t.Error("debug.log should be ignored")
	}
	if ic.IsIgnored("important.log") {
		t.Error("important.log is re-included by the negation")
	}
}

func TestIgnore_CommentsAndBlankLines(t *testing.T) {
	ic := newIgnoreChecker(t, "# build artifacts\n\n*.o\n")

	if !ic.IsIgnored("main.o") {
		t.Error("*.o should be ignored")
	}
	if ic.IsIgnored("# build artifacts") {
		t.Error("comment lines are not patterns")
	}
}

func TestIgnore_AnchoredPattern(t *testing.T) {
	ic := newIgnoreChecker(t, "docs/*.md\n")

	if !ic.IsIgnored("docs/readme.md") {
		t.Error("docs/readme.md should match")
	}
	if ic.IsIgnored("docs/sub/inner.md") {
		t.Error("single * must not cross directory boundaries")
	}
	if ic.IsIgnored("other/readme.md") {
		t.Error("slash patterns anchor to the full path")
	}
}
