package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const minRefreshIntervalSecs = 30

// Config holds the non-secret settings persisted to config.yaml.
// Secret settings (API keys, ntfy topic) live in the encrypted store.
type Config struct {
	RefreshIntervalSecs uint64 `yaml:"refresh_interval_secs"`
	Currency            string `yaml:"currency"`
	Theme               string `yaml:"theme"`
}

func Default() Config {
	return Config{
		RefreshIntervalSecs: 60,
		Currency:            "usd",
		Theme:               "dark",
	}
}

// Load reads config.yaml from the user config dir, writing the defaults
// on first run.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file at an explicit path. The refresh interval
// floor keeps the provider within free-tier limits.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.SaveTo(path); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err != nil {
		return Default(), fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Clamp()
	return cfg, nil
}

// Clamp enforces field invariants after a load or an edit.
func (c *Config) Clamp() {
	if c.RefreshIntervalSecs < minRefreshIntervalSecs {
		c.RefreshIntervalSecs = minRefreshIntervalSecs
	}
	if c.Currency == "" {
		c.Currency = "usd"
	}
	if c.Theme == "" {
		c.Theme = "dark"
	}
}

func (c Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file location under the user config dir.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Dir returns the application data/config directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(base, "coindeck"), nil
}
