// Package reconcile decides and executes the action that brings one project
// into the user's requested configuration: clone it, provision it, switch
// its branch, or leave it alone.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workon-sh/workon/internal/env"
	"github.com/workon-sh/workon/internal/inventory"
)

// Action is the single decision computed for one reconciliation. It is
// never stored; it lives only for the duration of the call.
type Action int

const (
	ActionNoOp Action = iota
	ActionCloneOnly
	ActionCloneAndProvision
	ActionProvisionOnly
	ActionCheckoutBranch
	ActionConflict
)

func (a Action) String() string {
	switch a {
	case ActionCloneOnly:
		return "clone"
	case ActionCloneAndProvision:
		return "clone+provision"
	case ActionProvisionOnly:
		return "provision"
	case ActionCheckoutBranch:
		return "checkout-branch"
	case ActionConflict:
		return "conflict"
	default:
		return "no-op"
	}
}

// State is where a reconciliation run currently is, or terminally ended.
type State int

const (
	StateStart State = iota
	StateResolved
	StateCloning
	StateProvisioning
	StateCheckingOut
	StateDone
	StateConflict
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateCloning:
		return "cloning"
	case StateProvisioning:
		return "provisioning"
	case StateCheckingOut:
		return "checking-out"
	case StateDone:
		return "done"
	case StateConflict:
		return "conflict"
	case StateFailed:
		return "failed"
	default:
		return "start"
	}
}

// Options is what the caller asked for.
type Options struct {
	// Provision requests environment setup.
	Provision bool
	// EnvKind is the requested environment kind; KindNone means "whatever
	// the project's markers say, defaulting to a virtualenv".
	EnvKind env.Kind
	// Branch, when non-empty, requests that branch be checked out.
	Branch string
	// PythonVersion selects the interpreter for created environments.
	PythonVersion string
}

// Result is the terminal outcome of one reconciliation. Reason is always a
// human-readable sentence, distinct from any wrapped error detail.
type Result struct {
	Action Action
	State  State
	Reason string
	// Partial marks the clone-succeeded-provision-failed outcome: the
	// clone is preserved on disk and the failure reported, not hidden.
	Partial bool
	// Path is the local project directory, when one exists after the run.
	Path string
}

// GitClient is the slice of the git layer the machine drives.
type GitClient interface {
	Clone(ctx context.Context, url, parentDir, name string) (string, error)
	CurrentBranch(ctx context.Context, dir string) (string, error)
	Checkout(ctx context.Context, dir, branch string) error
}

// EnvProvisioner creates environments through external tools.
type EnvProvisioner interface {
	Provision(ctx context.Context, dir string, kind env.Kind, pythonVersion string) error
}

// DetectFunc classifies a project directory's environment.
type DetectFunc func(dir string) env.Kind

type Machine struct {
	git         GitClient
	provisioner EnvProvisioner
	detect      DetectFunc
	projectsDir string
	logger      *slog.Logger
}

func NewMachine(git GitClient, provisioner EnvProvisioner, detect DetectFunc, projectsDir string, logger *slog.Logger) *Machine {
	return &Machine{
		git:         git,
		provisioner: provisioner,
		detect:      detect,
		projectsDir: projectsDir,
		logger:      logger,
	}
}

// Plan computes the action for a view without side effects. The detect
// function is only consulted when the project exists locally.
func Plan(view inventory.ProjectView, opts Options, detect DetectFunc) (Action, string) {
	switch {
	case view.Local == nil && view.Remote == nil:
		return ActionConflict, fmt.Sprintf("project %q not found locally or on GitHub", view.Name)

	case view.Local == nil:
		if opts.Provision {
			return ActionCloneAndProvision, fmt.Sprintf("%q exists remotely only; will clone and set up its environment", view.Name)
		}
		return ActionCloneOnly, fmt.Sprintf("%q exists remotely only; will clone", view.Name)
	}

	if opts.Branch != "" && view.Remote != nil {
		return ActionCheckoutBranch, fmt.Sprintf("%q is available locally; will switch to branch %q", view.Name, opts.Branch)
	}

	if opts.Provision {
		current := detect(view.Local.Path)
		switch {
		case current == env.KindNone:
			return ActionProvisionOnly, fmt.Sprintf("%q has no environment; will create one", view.Name)
		case opts.EnvKind == env.KindNone || current == opts.EnvKind:
			return ActionNoOp, fmt.Sprintf("%q already has a %s environment", view.Name, current)
		default:
			return ActionConflict, fmt.Sprintf("%q already has a %s environment, refusing to overlay %s", view.Name, current, opts.EnvKind)
		}
	}

	return ActionNoOp, fmt.Sprintf("%q is already available locally", view.Name)
}

// Run executes the plan for view. Exactly one reconciliation runs per
// invocation; the machine borrows the view read-only and retains nothing.
// It never panics on malformed input: every outcome is a Result, with
// Conflict and Failed as the error-shaped terminals.
func (m *Machine) Run(ctx context.Context, view inventory.ProjectView, opts Options) Result {
	logger := m.logger.With("project", view.Name)
	logger.Debug("reconciling", "state", StateResolved.String())

	action, reason := Plan(view, opts, m.detect)
	logger.Info("planned action", "action", action.String())

	switch action {
	case ActionConflict:
		return Result{Action: action, State: StateConflict, Reason: reason}

	case ActionNoOp:
		return Result{Action: action, State: StateDone, Reason: reason, Path: localPath(view)}

	case ActionCloneOnly, ActionCloneAndProvision:
		return m.runClone(ctx, logger, view, opts, action)

	case ActionProvisionOnly:
		return m.runProvision(ctx, logger, view, opts)

	case ActionCheckoutBranch:
		return m.runCheckout(ctx, logger, view, opts)
	}

	return Result{Action: action, State: StateFailed, Reason: "internal: unhandled action"}
}

func (m *Machine) runClone(ctx context.Context, logger *slog.Logger, view inventory.ProjectView, opts Options, action Action) Result {
	// Cancellation must land before the first destructive step, never
	// between partial ones.
	if err := ctx.Err(); err != nil {
		return Result{Action: action, State: StateFailed, Reason: "cancelled before cloning began"}
	}

	logger.Debug("reconciling", "state", StateCloning.String())
	path, err := m.git.Clone(ctx, view.Remote.CloneURL, m.projectsDir, view.Remote.Name)
	if err != nil {
		logger.Error("clone failed", "error", err)
		return Result{
			Action: action,
			State:  StateFailed,
			Reason: fmt.Sprintf("cloning %q failed: %v", view.Name, err),
		}
	}

	if action == ActionCloneOnly {
		return Result{
			Action: action,
			State:  StateDone,
			Reason: fmt.Sprintf("cloned %q to %s", view.Name, path),
			Path:   path,
		}
	}

	logger.Debug("reconciling", "state", StateProvisioning.String())
	kind := m.provisionKind(path, opts)
	if err := m.provisioner.Provision(ctx, path, kind, opts.PythonVersion); err != nil {
		// The clone stays on disk: reporting beats destructive rollback
		// of the user's filesystem.
		logger.Warn("provisioning failed after clone", "error", err)
		return Result{
			Action:  action,
			State:   StateDone,
			Partial: true,
			Reason:  fmt.Sprintf("cloned %q to %s, but environment setup failed: %v", view.Name, path, err),
			Path:    path,
		}
	}

	return Result{
		Action: action,
		State:  StateDone,
		Reason: fmt.Sprintf("cloned %q to %s and set up its %s environment", view.Name, path, kind),
		Path:   path,
	}
}

func (m *Machine) runProvision(ctx context.Context, logger *slog.Logger, view inventory.ProjectView, opts Options) Result {
	if err := ctx.Err(); err != nil {
		return Result{Action: ActionProvisionOnly, State: StateFailed, Reason: "cancelled before provisioning began"}
	}

	logger.Debug("reconciling", "state", StateProvisioning.String())
	path := view.Local.Path
	kind := m.provisionKind(path, opts)
	if err := m.provisioner.Provision(ctx, path, kind, opts.PythonVersion); err != nil {
		logger.Error("provisioning failed", "error", err)
		return Result{
			Action: ActionProvisionOnly,
			State:  StateFailed,
			Reason: fmt.Sprintf("environment setup for %q failed: %v", view.Name, err),
			Path:   path,
		}
	}

	return Result{
		Action: ActionProvisionOnly,
		State:  StateDone,
		Reason: fmt.Sprintf("set up a %s environment for %q", kind, view.Name),
		Path:   path,
	}
}

func (m *Machine) runCheckout(ctx context.Context, logger *slog.Logger, view inventory.ProjectView, opts Options) Result {
	path := view.Local.Path
	current, err := m.git.CurrentBranch(ctx, path)
	if err != nil {
		return Result{
			Action: ActionCheckoutBranch,
			State:  StateFailed,
			Reason: fmt.Sprintf("reading the checked-out branch of %q failed: %v", view.Name, err),
			Path:   path,
		}
	}

	if current == opts.Branch {
		return Result{
			Action: ActionNoOp,
			State:  StateDone,
			Reason: fmt.Sprintf("%q is already on branch %q", view.Name, opts.Branch),
			Path:   path,
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{Action: ActionCheckoutBranch, State: StateFailed, Reason: "cancelled before checkout began"}
	}

	logger.Debug("reconciling", "state", StateCheckingOut.String())
	if err := m.git.Checkout(ctx, path, opts.Branch); err != nil {
		logger.Error("checkout failed", "error", err)
		return Result{
			Action: ActionCheckoutBranch,
			State:  StateFailed,
			Reason: fmt.Sprintf("switching %q to branch %q failed: %v", view.Name, opts.Branch, err),
			Path:   path,
		}
	}

	return Result{
		Action: ActionCheckoutBranch,
		State:  StateDone,
		Reason: fmt.Sprintf("switched %q to branch %q", view.Name, opts.Branch),
		Path:   path,
	}
}

// provisionKind picks the environment kind to create: the explicit request
// wins, then the markers of the directory, then a plain virtualenv.
func (m *Machine) provisionKind(dir string, opts Options) env.Kind {
	if opts.EnvKind != env.KindNone {
		return opts.EnvKind
	}
	if detected := m.detect(dir); detected != env.KindNone {
		return detected
	}
	return env.KindVirtualEnv
}

func localPath(view inventory.ProjectView) string {
	if view.Local != nil {
		return view.Local.Path
	}
	return ""
}
