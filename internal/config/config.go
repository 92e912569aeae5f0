package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ProjectsDir     string        `yaml:"projects_dir"`
	Token           string        `yaml:"token"`
	Username        string        `yaml:"username"`
	Editor          string        `yaml:"editor"`
	CondaBin        string        `yaml:"conda_bin"`
	CacheTimeout    time.Duration `yaml:"-"`
	RawCacheTimeout string        `yaml:"cache_timeout"`
	MatchThreshold  int           `yaml:"match_threshold"`
	CommonPackages  []string      `yaml:"common_packages"`
	Git             *bool         `yaml:"git,omitempty"`
	Log             LogConfig     `yaml:"log"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultPath returns the config file location, ~/.workon.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".workon.yaml"
	}
	return filepath.Join(home, ".workon.yaml")
}

// Load reads the config file at path. A missing file is not an error: the
// returned config is fully defaulted, with the token and editor picked up
// from the environment. A .env file next to the config file is loaded first
// so GITHUB_TOKEN can live there instead of the config proper.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() error {
	if c.ProjectsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		c.ProjectsDir = filepath.Join(home, "Development")
	}
	if c.Token == "" {
		c.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.Editor == "" {
		c.Editor = os.Getenv("EDITOR")
	}
	if c.CondaBin == "" {
		c.CondaBin = "conda"
	}
	if c.RawCacheTimeout == "" {
		c.RawCacheTimeout = "120s"
	}
	d, err := time.ParseDuration(c.RawCacheTimeout)
	if err != nil {
		return fmt.Errorf("parse cache_timeout %q: %w", c.RawCacheTimeout, err)
	}
	c.CacheTimeout = d

	if c.MatchThreshold == 0 {
		c.MatchThreshold = 60
	}
	if c.Git == nil {
		defaultTrue := true
		c.Git = &defaultTrue
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return nil
}

func (c *Config) validate() error {
	if c.CacheTimeout <= 0 {
		return fmt.Errorf("cache_timeout must be positive, got %s", c.RawCacheTimeout)
	}
	if c.MatchThreshold < 1 || c.MatchThreshold > 100 {
		return fmt.Errorf("match_threshold must be in 1..100, got %d", c.MatchThreshold)
	}
	switch c.CondaBin {
	case "conda", "mamba", "micromamba":
	default:
		return fmt.Errorf("invalid conda_bin %q (conda|mamba|micromamba)", c.CondaBin)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (debug|info|warn|error)", c.Log.Level)
	}
	return nil
}

// HasAPICreds reports whether remote operations can authenticate.
func (c *Config) HasAPICreds() bool {
	return c.Token != ""
}
