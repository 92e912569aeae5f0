// Package scan walks the configured projects root and classifies each
// immediate subdirectory as a local project.
package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/workon-sh/workon/internal/env"
)

// ErrRootNotFound is returned when the projects root directory is missing.
var ErrRootNotFound = errors.New("projects root not found")

// LocalProject is one directory under the projects root. It carries no
// persisted identity; every scan re-derives it from the filesystem.
type LocalProject struct {
	Name        string
	Path        string
	HasVCS      bool
	Environment env.Kind
}

// Warning records a subdirectory that was excluded from the scan without
// failing it.
type Warning struct {
	Path   string
	Reason string
}

type Scanner struct {
	root   string
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Scanner {
	return &Scanner{root: root, logger: logger}
}

// Scan enumerates the immediate subdirectories of the root, one project per
// directory. Files, hidden entries and symlinks are skipped silently; an
// unreadable subdirectory is excluded and reported as a warning. A missing
// root fails with ErrRootNotFound and an empty result, never a partial one.
func (s *Scanner) Scan() ([]LocalProject, []Warning, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRootNotFound, s.root)
		}
		return nil, nil, fmt.Errorf("read projects root: %w", err)
	}

	var projects []LocalProject
	var warnings []Warning
	for _, entry := range entries {
		name := entry.Name()
		// entry.IsDir is false for symlinks, which also keeps symlink
		// loops out of the scan.
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(s.root, name)
		project, err := classify(path, name)
		if err != nil {
			s.logger.Warn("excluding unreadable project dir", "path", path, "error", err)
			warnings = append(warnings, Warning{Path: path, Reason: err.Error()})
			continue
		}
		projects = append(projects, project)
	}

	sort.Slice(projects, func(i, j int) bool {
		return strings.ToLower(projects[i].Name) < strings.ToLower(projects[j].Name)
	})

	s.logger.Debug("scanned projects root", "root", s.root, "projects", len(projects), "warnings", len(warnings))
	return projects, warnings, nil
}

func classify(path, name string) (LocalProject, error) {
	// Probe readability up front so a permission problem surfaces as one
	// warning instead of silently wrong marker results.
	if _, err := os.ReadDir(path); err != nil {
		return LocalProject{}, err
	}

	hasVCS := false
	if info, err := os.Stat(filepath.Join(path, ".git")); err == nil && info.IsDir() {
		hasVCS = true
	}

	return LocalProject{
		Name:        name,
		Path:        path,
		HasVCS:      hasVCS,
		Environment: env.Detect(path),
	}, nil
}
