package scan

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workon-sh/workon/internal/env"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestScan(t *testing.T) {
	root := t.TempDir()

	// A plain project with a git marker and a virtualenv.
	proj := filepath.Join(root, "alpha")
	require.NoError(t, os.MkdirAll(filepath.Join(proj, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(proj, ".venv"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(proj, ".venv", "pyvenv.cfg"), []byte("home = /usr/bin\n"), 0o644))

	// A bare project, no markers.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bravo"), 0o755))

	// Entries that must be skipped: a file, a hidden dir, a symlink.
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0o755))
	require.NoError(t, os.Symlink(proj, filepath.Join(root, "alpha-link")))

	s := New(root, testLogger())
	projects, warnings, err := s.Scan()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, projects, 2)

	assert.Equal(t, "alpha", projects[0].Name)
	assert.Equal(t, proj, projects[0].Path)
	assert.True(t, projects[0].HasVCS)
	assert.Equal(t, env.KindVirtualEnv, projects[0].Environment)

	assert.Equal(t, "bravo", projects[1].Name)
	assert.False(t, projects[1].HasVCS)
	assert.Equal(t, env.KindNone, projects[1].Environment)
}

func TestScan_RootNotFound(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"), testLogger())
	projects, warnings, err := s.Scan()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRootNotFound)
	assert.Empty(t, projects, "missing root must yield an empty result, not a partial one")
	assert.Empty(t, warnings)
}

func TestScan_UnreadableDirBecomesWarning(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "open"), 0o755))

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	s := New(root, testLogger())
	projects, warnings, err := s.Scan()
	require.NoError(t, err, "one unreadable dir must not fail the scan")

	require.Len(t, projects, 1)
	assert.Equal(t, "open", projects[0].Name)

	require.Len(t, warnings, 1)
	assert.Equal(t, locked, warnings[0].Path)
	assert.NotEmpty(t, warnings[0].Reason)
}
