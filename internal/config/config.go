// Package config loads CodeEnvSwitch configuration: profile declarations,
// tool directory overrides, and pricing overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/Kritoooo/CodeEnvSwitch/internal/pricing"
)

// Config holds all CodeEnvSwitch configuration.
type Config struct {
	General  GeneralConfig      `toml:"general"`
	Profiles map[string]Profile `toml:"profiles,omitempty"`
	Pricing  PricingOverrides   `toml:"pricing"`
}

// GeneralConfig holds directory overrides. Empty fields fall back to the
// platform defaults.
type GeneralConfig struct {
	DataDir   string `toml:"data_dir,omitempty"`
	ClaudeDir string `toml:"claude_dir,omitempty"`
	CodexDir  string `toml:"codex_dir,omitempty"`
}

// Profile declares one operator-chosen identity, distinct from the
// underlying tool account.
type Profile struct {
	Name       string         `toml:"name,omitempty"`
	Type       string         `toml:"type,omitempty"`
	Model      string         `toml:"model,omitempty"`
	Multiplier *float64       `toml:"multiplier,omitempty"`
	Pricing    *PriceOverride `toml:"pricing,omitempty"`
}

// PriceOverride holds partial per-field pricing, USD per million tokens.
type PriceOverride struct {
	InputPerMTok      *float64 `toml:"input_per_mtok,omitempty"`
	OutputPerMTok     *float64 `toml:"output_per_mtok,omitempty"`
	CacheReadPerMTok  *float64 `toml:"cache_read_per_mtok,omitempty"`
	CacheWritePerMTok *float64 `toml:"cache_write_per_mtok,omitempty"`
	Description       string   `toml:"description,omitempty"`
}

// PricingOverrides allows user-defined pricing for specific models.
type PricingOverrides struct {
	Overrides map[string]PriceOverride `toml:"overrides,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codeenvswitch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "codeenvswitch")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads a config file at an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// DataDir returns the directory holding the ledger, state, binding log and
// lock files.
func (c Config) DataDir() string {
	if c.General.DataDir != "" {
		return c.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "codeenvswitch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "codeenvswitch")
}

// LedgerPath returns the usage ledger file path.
func (c Config) LedgerPath() string { return filepath.Join(c.DataDir(), "usage.jsonl") }

// StatePath returns the sync state document path.
func (c Config) StatePath() string { return filepath.Join(c.DataDir(), "state.json") }

// BindingLogPath returns the profile binding log path.
func (c Config) BindingLogPath() string { return filepath.Join(c.DataDir(), "bindings.jsonl") }

// LockPath returns the sync lock file path.
func (c Config) LockPath() string { return filepath.Join(c.DataDir(), "sync.lock") }

// ClaudeDir returns the Claude Code data directory.
func (c Config) ClaudeDir() string {
	if c.General.ClaudeDir != "" {
		return c.General.ClaudeDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// CodexDir returns the Codex CLI data directory.
func (c Config) CodexDir() string {
	if c.General.CodexDir != "" {
		return c.General.CodexDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codex")
}

// PricingTable converts config-level model overrides to a pricing table.
func (c Config) PricingTable() pricing.Table {
	if len(c.Pricing.Overrides) == 0 {
		return nil
	}
	tbl := make(pricing.Table, len(c.Pricing.Overrides))
	for name, over := range c.Pricing.Overrides {
		tbl[name] = over.toPrice()
	}
	return tbl
}

func (o PriceOverride) toPrice() pricing.Price {
	return pricing.Price{
		Input:       o.InputPerMTok,
		Output:      o.OutputPerMTok,
		CacheRead:   o.CacheReadPerMTok,
		CacheWrite:  o.CacheWritePerMTok,
		Description: o.Description,
	}
}

// ProfileOverride translates a profile declaration for the pricing
// resolver. Returns nil when the profile carries no pricing preferences.
func (p Profile) ProfileOverride() *pricing.ProfileOverride {
	over := pricing.ProfileOverride{
		Model:      p.Model,
		Multiplier: p.Multiplier,
	}
	if p.Pricing != nil {
		over.Price = p.Pricing.toPrice()
	}
	if over.Model == "" && over.Multiplier == nil && over.Price.IsEmpty() {
		return nil
	}
	return &over
}

// FindProfile locates a profile by key first, then by display name.
func (c Config) FindProfile(key, name string) (string, Profile, bool) {
	if key != "" {
		if p, ok := c.Profiles[key]; ok {
			return key, p, true
		}
	}
	if name != "" {
		for k, p := range c.Profiles {
			if p.Name == name {
				return k, p, true
			}
		}
	}
	return "", Profile{}, false
}
