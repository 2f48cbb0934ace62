// Package config loads pgschemaplan.toml, the named-environment config file
// read by the CLI (spec §1.3). The core pipeline itself takes no config.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// EnvironmentConfig describes a single named environment.
type EnvironmentConfig struct {
	PostgresURL string `toml:"postgres_url"`
}

// Config is the parsed contents of pgschemaplan.toml.
type Config struct {
	Environments   map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath string                       `toml:"-"`
}

// Load walks up from the working directory looking for pgschemaplan.toml
// and parses it.
func Load() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	cfg.ConfigFilePath = configPath
	return &cfg, nil
}

// Environment looks up a named environment, erroring with the available
// names when it isn't found.
func (c *Config) Environment(name string) (EnvironmentConfig, error) {
	env, ok := c.Environments[name]
	if !ok {
		return EnvironmentConfig{}, fmt.Errorf("environment %q not found in %s (have: %v)", name, c.ConfigFilePath, c.environmentNames())
	}
	return env, nil
}

func (c *Config) environmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	return names
}

func findConfigPath() (string, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := startDir
	for {
		configPath := filepath.Join(dir, "pgschemaplan.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("pgschemaplan.toml not found")
}

// isProjectRoot checks common project-root markers, matching the boundary
// the teacher's config walker stops at.
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	return false
}
