package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rheko/matcha/internal/consts"
)

//go:embed config.toml
var defaultConfig []byte

// Config holds the application configuration.
type Config struct {
	Mouse            bool `toml:"mouse"`
	CollapsedThreads bool `toml:"collapsed_threads"`

	Server   Server   `toml:"server"`
	Teams    Teams    `toml:"teams"`
	Features Features `toml:"features"`

	Keybinds Keybinds `toml:"keybinds"`
}

// Server holds connection settings. The base URL here is a fallback; the
// keyring value (or MATCHA_SERVER_URL) takes precedence when present.
type Server struct {
	BaseURL string `toml:"base_url"`
}

// Teams controls team resolution behavior.
type Teams struct {
	// ReservedNames are route slugs that never resolve to a team. A slug in
	// this list is silently ignored rather than treated as a join candidate.
	ReservedNames []string `toml:"reserved_names"`
}

// Features mirrors the server's licensed feature flags. These act as
// defaults until the live values are fetched at startup.
type Features struct {
	Licensed     bool `toml:"licensed"`
	LDAPGroups   bool `toml:"ldap_groups"`
	CustomGroups bool `toml:"custom_groups"`
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, consts.Name, "config.toml")
}

// Load reads the config from the given path. If the file does not exist,
// it writes the default config and loads that. Config loading is two-phase:
// embedded defaults are applied first, then the user file overlays on top.
func Load(path string) (*Config, error) {
	// Phase 1: unmarshal embedded defaults.
	var cfg Config
	if err := toml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}

	// Write default config if file does not exist.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, defaultConfig, 0o600); err != nil {
			return nil, err
		}
	}

	// Phase 2: overlay user file on top of defaults.
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// validate checks that config values are within acceptable ranges.
func validate(cfg *Config) error {
	for _, name := range cfg.Teams.ReservedNames {
		if name == "" {
			return fmt.Errorf("teams.reserved_names must not contain empty entries")
		}
	}
	return nil
}

// IsReservedTeamName reports whether slug is a reserved route name.
func (c *Config) IsReservedTeamName(slug string) bool {
	for _, name := range c.Teams.ReservedNames {
		if name == slug {
			return true
		}
	}
	return false
}
