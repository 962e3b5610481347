package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSourceURL  = "git://git.openstack.org/openstack/tempest"
	DefaultSourceName = "tempest"
	DefaultOutputDir  = "tempest_lib"
	DefaultBackend    = "git"
	DefaultLogLevel   = "warn"

	EnvSourceURL = "TEMPEST_GIT_URL"
	EnvOutputDir = "HISTMIGRATE_OUTPUT_DIR"
	EnvBackend   = "HISTMIGRATE_BACKEND"
	EnvBranch    = "HISTMIGRATE_BRANCH"
	EnvLogLevel  = "HISTMIGRATE_LOG_LEVEL"
)

// configFileNames are searched, in order, in the working directory and then $HOME.
var configFileNames = []string{".histmigrate.json", ".histmigrate.yml", ".histmigrate.yaml"}

// Config is the root configuration structure.
type Config struct {
	Source    SourceConfig  `json:"source" yaml:"source"`
	OutputDir string        `json:"outputDir" yaml:"outputDir"`
	Backend   string        `json:"backend" yaml:"backend"` // git or go-git
	Message   MessageConfig `json:"message" yaml:"message"`
	Filters   FilterConfig  `json:"filters" yaml:"filters"`
	Log       LogConfig     `json:"log" yaml:"log"`
}

// SourceConfig describes the repository files are migrated from.
type SourceConfig struct {
	URL    string `json:"url" yaml:"url"`
	Branch string `json:"branch" yaml:"branch"` // empty clones the remote HEAD
	Name   string `json:"name" yaml:"name"`     // used in the commit message
}

// MessageConfig overrides the commit message text. {files} and {source}
// are substituted; empty fields keep the built-in text.
type MessageConfig struct {
	Summary    string `json:"summary" yaml:"summary"`
	Preamble   string `json:"preamble" yaml:"preamble"`
	Postscript string `json:"postscript" yaml:"postscript"`
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:  DefaultSourceURL,
			Name: DefaultSourceName,
		},
		OutputDir: DefaultOutputDir,
		Backend:   DefaultBackend,
		Filters: FilterConfig{
			Exclude: []string{},
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// LoadConfig loads configuration from a file, merging with defaults, then
// applies environment overrides. An empty path searches the default locations;
// a non-empty path must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	ApplyEnv(cfg)
	return cfg, nil
}

func findConfigFile() string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, home)
	} else if envHome := os.Getenv("HOME"); envHome != "" {
		dirs = append(dirs, envHome)
	}

	for _, dir := range dirs {
		for _, name := range configFileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any non-empty environment variables.
func ApplyEnv(cfg *Config) {
	if v, ok := lookupString(EnvSourceURL); ok {
		cfg.Source.URL = v
	}
	if v, ok := lookupString(EnvBranch); ok {
		cfg.Source.Branch = v
	}
	if v, ok := lookupString(EnvOutputDir); ok {
		cfg.OutputDir = v
	}
	if v, ok := lookupString(EnvBackend); ok {
		cfg.Backend = v
	}
	if v, ok := lookupString(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
}

func lookupString(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "", false
		}
		return trimmed, true
	}
	return "", false
}

// SaveConfig saves configuration to a file, as YAML when the extension is
// .yml or .yaml and as JSON otherwise.
func SaveConfig(cfg *Config, path string) error {
	data, err := Marshal(cfg, isYAML(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal renders cfg as YAML or indented JSON.
func Marshal(cfg *Config, asYAML bool) ([]byte, error) {
	if asYAML {
		return yaml.Marshal(cfg)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	default:
		return false
	}
}
