package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// SettingsFileName is looked up in the root directory on every run.
const SettingsFileName = ".metabuild.yaml"

// settingsFile is the optional per-tree configuration file. Every field is
// a default: values already set on the Config win.
type settingsFile struct {
	SecondaryRoot    string   `yaml:"secondary_root"`
	Workers          int      `yaml:"workers"`
	RootLabels       []string `yaml:"root_labels"`
	DefaultToolchain string   `yaml:"default_toolchain"`
	Log              struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// loadSettings reads rootDir's settings file. A missing file is not an
// error; a malformed one is.
func loadSettings(rootDir string) (*settingsFile, error) {
	path := filepath.Join(rootDir, SettingsFileName)
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var s settingsFile
	if err := yaml.Unmarshal(src, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// apply fills cfg's unset fields from the settings file.
func (s *settingsFile) apply(cfg Config) Config {
	if cfg.SecondaryRootDir == "" && s.SecondaryRoot != "" {
		cfg.SecondaryRootDir = s.SecondaryRoot
	}
	if cfg.Workers == 0 && s.Workers != 0 {
		cfg.Workers = s.Workers
	}
	if len(cfg.RootLabels) == 0 {
		cfg.RootLabels = s.RootLabels
	}
	if cfg.DefaultToolchain == "" {
		cfg.DefaultToolchain = s.DefaultToolchain
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = s.Log.Level
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = s.Log.Format
	}
	return cfg
}
