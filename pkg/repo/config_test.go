package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_FreshRepoDefaults(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Core.DefaultBranch != "main" {
		t.Errorf("default branch = %q, want main", cfg.Core.DefaultBranch)
	}
	if cfg.Merge.Style != "merge" {
		t.Errorf("merge style = %q, want merge", cfg.Merge.Style)
	}
	if cfg.Author() != "jot" {
		t.Errorf("Author() = %q, want fallback jot", cfg.Author())
	}
}

func TestConfig_RoundTrip(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	cfg.User.Name = "Ada Lovelace"
	cfg.User.Email = "ada@example.com"
	cfg.Merge.Style = "diff3"
	if err := r.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if got.User.Name != "Ada Lovelace" || got.User.Email != "ada@example.com" {
		t.Errorf("user = %+v", got.User)
	}
	if got.Merge.Style != "diff3" {
		t.Errorf("merge style = %q, want diff3", got.Merge.Style)
	}
	if got.Author() != "Ada Lovelace <ada@example.com>" {
		t.Errorf("Author() = %q", got.Author())
	}
}

func TestConfig_MissingFileYieldsDefaults(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := os.Remove(filepath.Join(r.JotDir, "config.toml")); err != nil {
		t.Fatalf("remove config: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Core.DefaultBranch != "main" || cfg.Merge.Style != "merge" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestConfig_FileIsTOML(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(r.JotDir, "config.toml"))
	if err != nil {
		t.Fatalf("read config.toml: %v", err)
	}
	if !strings.Contains(string(data), "[core]") {
		t.Errorf("config.toml missing [core] section:\n%s", data)
	}
	if !strings.Contains(string(data), `default_branch = "main"`) {
		t.Errorf("config.toml missing default_branch:\n%s", data)
	}
}
