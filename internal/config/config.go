package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Panahifarah/kalpak/internal/utils"
)

// Settings holds the full run configuration after defaults, config file
// overrides, and flags have been merged.
type Settings struct {
	Retries        int    `yaml:"retries"`
	MaxConnections int    `yaml:"max_connections"`
	Resume         bool   `yaml:"resume"`
	OutputDir      string `yaml:"dest"`
	LogFile        string `yaml:"log"`
}

func Default() Settings {
	return Settings{
		Retries:        3,
		MaxConnections: 10,
		OutputDir:      ".",
		LogFile:        DefaultLogPath(),
	}
}

// DefaultLogPath follows the platform convention: a dot directory under
// the user's home on Windows, /var/log elsewhere.
func DefaultLogPath() string {
	if runtime.GOOS != "windows" {
		return "/var/log/kalpak.log"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "kalpak.log"
	}
	return filepath.Join(home, ".kalpak", "kalpak.log")
}

// overrides mirrors the optional YAML config file. Pointer fields keep
// absent keys distinguishable from zero values.
type overrides struct {
	Retries        *int    `yaml:"retries"`
	MaxConnections *int    `yaml:"max_connections"`
	Resume         *bool   `yaml:"resume"`
	OutputDir      *string `yaml:"dest"`
	LogFile        *string `yaml:"log"`
}

// ApplyOverrides merges values from a YAML config file into s. A missing
// or malformed file is logged and leaves s untouched.
func (s *Settings) ApplyOverrides(path string) {
	log := utils.GetLogger("config")
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Configuration file not readable, ignoring")
		return
	}
	var o overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error parsing configuration file, ignoring")
		return
	}
	if o.Retries != nil {
		s.Retries = *o.Retries
	}
	if o.MaxConnections != nil {
		s.MaxConnections = *o.MaxConnections
	}
	if o.Resume != nil {
		s.Resume = *o.Resume
	}
	if o.OutputDir != nil {
		s.OutputDir = *o.OutputDir
	}
	if o.LogFile != nil {
		s.LogFile = *o.LogFile
	}
	log.Debug().Str("file", path).Msg("Configuration overrides applied")
}

// Validate rejects values the fetch pipeline cannot run with. Called
// before any network activity.
func (s Settings) Validate() error {
	if s.Retries < 1 {
		return errors.New("retries must be at least 1")
	}
	if s.MaxConnections < 1 {
		return errors.New("max connections must be at least 1")
	}
	return nil
}
