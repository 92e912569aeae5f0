package env

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ProvisionError reports a failed external environment-manager invocation.
// Stderr carries the delegated process's stderr verbatim.
type ProvisionError struct {
	Kind   Kind
	Stderr string
	Err    error
}

func (e *ProvisionError) Error() string {
	msg := fmt.Sprintf("provision %s environment: %v", e.Kind, e.Err)
	if e.Stderr != "" {
		msg += "\n" + strings.TrimRight(e.Stderr, "\n")
	}
	return msg
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Runner executes one external command and returns its captured stderr
// alongside any error. Split out so the state machine tests can inject a
// fake instead of spawning processes.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r *execRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	r.logger.Debug("exec", "cmd", name+" "+strings.Join(args, " "), "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// On cancellation interrupt rather than kill so the tool can reach a
	// safe exit point instead of leaving a half-written environment.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 10 * time.Second

	err := cmd.Run()
	return stderr.Bytes(), err
}

// Provisioner creates development environments by delegating to external
// environment managers. It is invoked only by the reconciliation machine,
// which runs detection first so re-provisioning a correct environment never
// happens.
type Provisioner struct {
	runner         Runner
	condaBin       string
	commonPackages []string
	logger         *slog.Logger
}

func NewProvisioner(condaBin string, commonPackages []string, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		runner:         &execRunner{logger: logger},
		condaBin:       condaBin,
		commonPackages: commonPackages,
		logger:         logger,
	}
}

// Provision sets up an environment of the given kind in dir. KindNone and
// KindVirtualEnv both mean a plain virtualenv. pythonVersion, when set,
// selects the interpreter used to seed virtualenvs ("3.12" → python3.12).
func (p *Provisioner) Provision(ctx context.Context, dir string, kind Kind, pythonVersion string) error {
	p.logger.Info("provisioning environment", "dir", dir, "kind", kind.String())

	switch kind {
	case KindNone, KindVirtualEnv:
		return p.provisionVenv(ctx, dir, kind, pythonVersion, nil)
	case KindRequirements:
		return p.provisionVenv(ctx, dir, kind, pythonVersion, []string{"-r", "requirements.txt"})
	case KindConda:
		return p.provisionConda(ctx, dir, pythonVersion)
	case KindPoetry:
		return p.step(ctx, dir, kind, "poetry", "install")
	case KindFlit:
		if err := p.provisionVenv(ctx, dir, kind, pythonVersion, nil); err != nil {
			return err
		}
		return p.step(ctx, dir, kind, "flit", "install", "--deps", "develop", "--python", venvPython(dir))
	default:
		return &ProvisionError{Kind: kind, Err: fmt.Errorf("unknown environment kind %d", int(kind))}
	}
}

func (p *Provisioner) provisionVenv(ctx context.Context, dir string, kind Kind, pythonVersion string, installArgs []string) error {
	interpreter := "python3"
	if pythonVersion != "" {
		interpreter = "python" + pythonVersion
	}

	if err := p.step(ctx, dir, kind, interpreter, "-m", "venv", ".venv"); err != nil {
		return err
	}

	python := venvPython(dir)
	if err := p.step(ctx, dir, kind, python, "-m", "pip", "install", "--upgrade", "pip", "setuptools", "wheel"); err != nil {
		return err
	}

	if len(installArgs) > 0 {
		args := append([]string{"-m", "pip", "install"}, installArgs...)
		if err := p.step(ctx, dir, kind, python, args...); err != nil {
			return err
		}
	}

	if len(p.commonPackages) > 0 {
		args := append([]string{"-m", "pip", "install"}, p.commonPackages...)
		if err := p.step(ctx, dir, kind, python, args...); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) provisionConda(ctx context.Context, dir, pythonVersion string) error {
	if fileExists(filepath.Join(dir, "environment.yml")) {
		return p.step(ctx, dir, KindConda, p.condaBin, "env", "create", "--file", "environment.yml", "--yes")
	}
	if fileExists(filepath.Join(dir, "environment.yaml")) {
		return p.step(ctx, dir, KindConda, p.condaBin, "env", "create", "--file", "environment.yaml", "--yes")
	}

	args := []string{"create", "--name", filepath.Base(dir), "--yes"}
	if pythonVersion != "" {
		args = append(args, "python="+pythonVersion)
	} else {
		args = append(args, "python")
	}
	return p.step(ctx, dir, KindConda, p.condaBin, args...)
}

func (p *Provisioner) step(ctx context.Context, dir string, kind Kind, name string, args ...string) error {
	stderr, err := p.runner.Run(ctx, dir, name, args...)
	if err != nil {
		return &ProvisionError{Kind: kind, Stderr: string(stderr), Err: fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)}
	}
	return nil
}

func venvPython(dir string) string {
	return filepath.Join(dir, ".venv", "bin", "python")
}
