package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("EDITOR", "vi")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "vi", cfg.Editor)
	assert.Equal(t, "conda", cfg.CondaBin)
	assert.Equal(t, 120*time.Second, cfg.CacheTimeout)
	assert.Equal(t, 60, cfg.MatchThreshold)
	require.NotNil(t, cfg.Git)
	assert.True(t, *cfg.Git)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.ProjectsDir)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workon.yaml")
	content := `
projects_dir: /tmp/projects
token: file-token
username: someone
cache_timeout: 5m
match_threshold: 75
conda_bin: mamba
common_packages:
  - mypy
  - ruff>=0.4
git: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/projects", cfg.ProjectsDir)
	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, "someone", cfg.Username)
	assert.Equal(t, 5*time.Minute, cfg.CacheTimeout)
	assert.Equal(t, 75, cfg.MatchThreshold)
	assert.Equal(t, "mamba", cfg.CondaBin)
	assert.Equal(t, []string{"mypy", "ruff>=0.4"}, cfg.CommonPackages)
	require.NotNil(t, cfg.Git)
	assert.False(t, *cfg.Git)
	assert.True(t, cfg.HasAPICreds())
}

func TestLoad_DotEnvFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "placeholder") // register cleanup
	os.Unsetenv("GITHUB_TOKEN")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GITHUB_TOKEN=dotenv-token\n"), 0o644))

	cfg, err := Load(filepath.Join(dir, "workon.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.Token)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad cache timeout", "cache_timeout: soon\n"},
		{"threshold too high", "match_threshold: 101\n"},
		{"unknown conda bin", "conda_bin: pipenv\n"},
		{"unknown log level", "log:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "workon.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
