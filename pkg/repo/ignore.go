package repo

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreChecker determines if a path should be excluded from untracked
// scanning. Patterns come from .jotignore at the repo root; .jot/ and
// .git/ are always ignored.
type IgnoreChecker struct {
	rules []ignoreRule
}

type ignoreRule struct {
	matcher   glob.Glob
	raw       string
	negated   bool
	dirOnly   bool
	hasSlash  bool
	dirPrefix bool // match the path itself or anything under it
}

// NewIgnoreChecker creates an IgnoreChecker for the given repository
// root, loading .jotignore if present.
func NewIgnoreChecker(repoRoot string) *IgnoreChecker {
	ic := &IgnoreChecker{
		rules: []ignoreRule{
			{raw: ".jot", dirPrefix: true},
			{raw: ".git", dirPrefix: true},
		},
	}

	f, err := os.Open(filepath.Join(repoRoot, ".jotignore"))
	if err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if rule, ok := parseIgnoreLine(scanner.Text()); ok {
				ic.rules = append(ic.rules, rule)
			}
		}
	}
	return ic
}

// parseIgnoreLine parses a single .jotignore line. ok is false for empty
// lines and comments.
func parseIgnoreLine(line string) (ignoreRule, bool) {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	rule := ignoreRule{}
	if strings.HasPrefix(line, "!") {
		rule.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	rule.hasSlash = strings.Contains(line, "/")
	rule.raw = line

	// '/' as separator keeps a single '*' from crossing directories
	// while '**' still does.
	if g, err := glob.Compile(line, '/'); err == nil {
		rule.matcher = g
	}
	return rule, true
}

// IsIgnored checks whether a relative path should be ignored. The path
// uses forward slashes, relative to the repository root. Last matching
// pattern wins, so negations can re-include paths.
func (ic *IgnoreChecker) IsIgnored(path string) bool {
	path = filepath.ToSlash(path)
	base := filepath.Base(path)

	ignored := false
	for _, rule := range ic.rules {
		if rule.matches(path, base) {
			ignored = !rule.negated
		}
	}
	return ignored
}

func (r ignoreRule) matches(path, base string) bool {
	if r.dirPrefix {
		return path == r.raw || strings.HasPrefix(path, r.raw+"/")
	}
	if r.matcher == nil {
		return false
	}
	if r.dirOnly {
		// Directory patterns match the directory itself and anything
		// under it; for slash-less patterns any ancestor segment counts.
		if r.hasSlash {
			return r.matcher.Match(path) || matchesUnder(r.matcher, path)
		}
		segs := strings.Split(path, "/")
		for _, seg := range segs[:len(segs)-1] {
			if r.matcher.Match(seg) {
				return true
			}
		}
		return r.matcher.Match(base)
	}
	if r.hasSlash {
		return r.matcher.Match(path)
	}
	return r.matcher.Match(base)
}

// matchesUnder reports whether any ancestor prefix of path matches.
func matchesUnder(g glob.Glob, path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && g.Match(path[:i]) {
			return true
		}
	}
	return false
}
