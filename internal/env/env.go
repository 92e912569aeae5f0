// Package env classifies and provisions the development environment of a
// local project. Detection is a pure function over marker files: it never
// executes anything found inside the project directory.
package env

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Kind identifies which environment manager governs a project.
type Kind int

const (
	KindNone Kind = iota
	KindVirtualEnv
	KindConda
	KindPoetry
	KindFlit
	KindRequirements
)

func (k Kind) String() string {
	switch k {
	case KindVirtualEnv:
		return "virtualenv"
	case KindConda:
		return "conda"
	case KindPoetry:
		return "poetry"
	case KindFlit:
		return "flit"
	case KindRequirements:
		return "requirements"
	default:
		return "none"
	}
}

// ParseKind maps a user-supplied name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "", "none":
		return KindNone, true
	case "virtualenv", "venv":
		return KindVirtualEnv, true
	case "conda":
		return KindConda, true
	case "poetry":
		return KindPoetry, true
	case "flit":
		return KindFlit, true
	case "requirements":
		return KindRequirements, true
	default:
		return KindNone, false
	}
}

// pyprojectTOML is the slice of pyproject.toml we care about.
type pyprojectTOML struct {
	BuildSystem struct {
		BuildBackend string `toml:"build-backend"`
	} `toml:"build-system"`
	Tool struct {
		Poetry map[string]any `toml:"poetry"`
		Flit   map[string]any `toml:"flit"`
	} `toml:"tool"`
}

// Detect returns the environment kind governing dir. Overlapping markers
// resolve in a fixed priority order, highest first:
//
//	poetry > flit > conda > virtualenv > requirements > none
//
// so a pyproject.toml declaring poetry wins over a stray requirements.txt.
func Detect(dir string) Kind {
	if py, ok := readPyproject(dir); ok {
		backend := strings.ToLower(py.BuildSystem.BuildBackend)
		if len(py.Tool.Poetry) > 0 || strings.Contains(backend, "poetry") {
			return KindPoetry
		}
		if len(py.Tool.Flit) > 0 || strings.Contains(backend, "flit") {
			return KindFlit
		}
	}

	if fileExists(filepath.Join(dir, "environment.yml")) || fileExists(filepath.Join(dir, "environment.yaml")) {
		return KindConda
	}

	for _, venvDir := range []string{".venv", "venv"} {
		if fileExists(filepath.Join(dir, venvDir, "pyvenv.cfg")) {
			return KindVirtualEnv
		}
	}

	if fileExists(filepath.Join(dir, "requirements.txt")) || fileExists(filepath.Join(dir, "requirements-dev.txt")) {
		return KindRequirements
	}

	return KindNone
}

func readPyproject(dir string) (pyprojectTOML, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		return pyprojectTOML{}, false
	}
	var py pyprojectTOML
	if err := toml.Unmarshal(data, &py); err != nil {
		// A malformed pyproject is treated as no pyproject marker at all;
		// the lower-priority markers still get their chance.
		return pyprojectTOML{}, false
	}
	return py, true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
