package app

import (
	"fmt"
	"os"
)

// Config holds everything an App needs to run one graph build.
type Config struct {
	// RootDir is the primary source root on disk.
	RootDir string
	// SecondaryRootDir, when set, is consulted for files absent under
	// RootDir.
	SecondaryRootDir string
	// RootFile is the source-absolute build file that starts the run.
	// Defaults to "//BUILD.hcl".
	RootFile string
	// RootLabels are labels always marked for generation, independent of
	// the default toolchain policy.
	RootLabels []string
	// DefaultToolchain is the label of the toolchain whose targets are
	// generated by default. Empty means targets with no explicit
	// toolchain.
	DefaultToolchain string
	// Workers sizes the parse worker pool. Zero or less means one per CPU.
	Workers int

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg, fills defaults, and merges in any settings file
// found under the root directory. Explicitly set fields win over the file.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	info, err := os.Stat(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("invalid root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", cfg.RootDir)
	}

	settings, err := loadSettings(cfg.RootDir)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		cfg = settings.apply(cfg)
	}

	if cfg.RootFile == "" {
		cfg.RootFile = "//BUILD.hcl"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be \"text\" or \"json\"", cfg.LogFormat)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	return &cfg, nil
}
