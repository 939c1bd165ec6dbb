package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config stores repository-local settings, persisted as TOML at
// .jot/config.toml.
type Config struct {
	User  UserConfig  `toml:"user"`
	Core  CoreConfig  `toml:"core"`
	Merge MergeConfig `toml:"merge"`
}

// UserConfig identifies the committing user.
type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// CoreConfig holds repository-wide settings.
type CoreConfig struct {
	DefaultBranch string `toml:"default_branch"`
}

// MergeConfig controls conflict rendering: "merge" (two-way markers) or
// "diff3" (adds the base block).
type MergeConfig struct {
	Style string `toml:"style"`
}

// DefaultConfig returns the settings a fresh repository starts with.
func DefaultConfig() *Config {
	return &Config{
		Core:  CoreConfig{DefaultBranch: "main"},
		Merge: MergeConfig{Style: "merge"},
	}
}

// Author formats the configured identity as "Name <email>". Falls back
// to "jot" when unset.
func (c *Config) Author() string {
	if c.User.Name == "" {
		return "jot"
	}
	if c.User.Email == "" {
		return c.User.Name
	}
	return fmt.Sprintf("%s <%s>", c.User.Name, c.User.Email)
}

func (r *Repo) configPath() string {
	return filepath.Join(r.JotDir, "config.toml")
}

// ReadConfig reads .jot/config.toml. A missing file yields defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(r.configPath(), cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if cfg.Core.DefaultBranch == "" {
		cfg.Core.DefaultBranch = "main"
	}
	if cfg.Merge.Style == "" {
		cfg.Merge.Style = "merge"
	}
	return cfg, nil
}

// WriteConfig atomically writes .jot/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tmp, err := os.CreateTemp(r.JotDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}
