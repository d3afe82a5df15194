package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"pedit/internal/config"
)

// Defaults holds the locations pedit uses when nothing else is configured.
type Defaults struct {
	ConfigPath string
	BaseDir    string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PEDIT_CONFIG_PATH: config file location (default: ~/.config/pedit.toml)
//   - PEDIT_HOME: base directory for pedit data (default: ~/.local/share/pedit)
func GetDefaults() (*Defaults, error) {
	configPath := os.Getenv("PEDIT_CONFIG_PATH")
	baseDir := os.Getenv("PEDIT_HOME")
	if configPath != "" && baseDir != "" {
		return &Defaults{ConfigPath: configPath, BaseDir: baseDir}, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	if configPath == "" {
		configPath = filepath.Join(homeDir, ".config", "pedit.toml")
	}
	if baseDir == "" {
		baseDir = filepath.Join(homeDir, ".local", "share", "pedit")
	}
	return &Defaults{ConfigPath: configPath, BaseDir: baseDir}, nil
}

// NewConfig returns the default configuration rooted at the base directory.
func (d *Defaults) NewConfig() *config.Config {
	return config.NewConfig(d.BaseDir)
}

// LoadConfig reads the config file. When it does not exist the defaults are
// used, so pedit works before `pedit config init` has been run.
func (d *Defaults) LoadConfig() (*config.Config, error) {
	cfg, err := config.ReadFromFile(d.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return d.NewConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
