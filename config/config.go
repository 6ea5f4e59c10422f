// Package config handles the persisted endpoint settings.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.aimuz.me/robovoice/internal/types"
)

const (
	appName        = "robovoice"
	configFileName = "config.json"

	// DefaultNgrokURL is used until the user sets an endpoint.
	DefaultNgrokURL = "https://example.ngrok-free.app/command"
)

// legacyPath is where older builds kept config.json (the working directory).
var legacyPath = configFileName

// Config represents the persisted settings.
type Config struct {
	NgrokURL     string `json:"ngrok_url"`
	SendCommands bool   `json:"send_commands"`

	path string
}

// fileConfig distinguishes missing keys from zero values.
type fileConfig struct {
	NgrokURL     *string `json:"ngrok_url"`
	SendCommands *bool   `json:"send_commands"`
}

// Default returns the default settings bound to path.
func Default(path string) *Config {
	return &Config{
		NgrokURL:     DefaultNgrokURL,
		SendCommands: true,
		path:         path,
	}
}

// DefaultPath returns $UserConfigDir/robovoice/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Load loads configuration from path, or DefaultPath when path is empty.
// A missing file or missing keys fall back to defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("get config path: %w", err)
		}
		path = p
		if err := migrateLegacyConfig(path); err != nil {
			slog.Warn("migrate legacy config", "error", err)
		}
	}

	cfg := Default(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if fc.NgrokURL != nil {
		cfg.NgrokURL = *fc.NgrokURL
	}
	if fc.SendCommands != nil {
		cfg.SendCommands = *fc.SendCommands
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	if c.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		c.path = p
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Path returns the file the config is saved to.
func (c *Config) Path() string {
	return c.path
}

// Snapshot returns the pipeline view of the settings.
func (c *Config) Snapshot() types.PipelineConfig {
	return types.PipelineConfig{
		EndpointURL:    c.NgrokURL,
		SendingEnabled: c.SendCommands,
	}
}

// Apply copies a pipeline view back into the config.
func (c *Config) Apply(pc types.PipelineConfig) {
	c.NgrokURL = pc.EndpointURL
	c.SendCommands = pc.SendingEnabled
}

// migrateLegacyConfig copies ./config.json to path when path does not exist yet.
func migrateLegacyConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config: %w", err)
	}

	data, err := os.ReadFile(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read legacy config: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		// Not ours.
		return nil
	}
	if fc.NgrokURL == nil && fc.SendCommands == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	slog.Info("migrated legacy config", "from", legacyPath, "to", path)
	return nil
}
