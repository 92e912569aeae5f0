package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/workon-sh/workon/internal/env"
	"github.com/workon-sh/workon/internal/github"
)

func newNewCmd(app *App) *cobra.Command {
	var (
		venv   string
		python string
		noGit  bool
	)

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a new local project",
		Long: `New creates an empty project directory under your projects directory,
initializes a git repository unless disabled, and optionally creates a
development environment for it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runNew(cmd.Context(), args[0], venv, python, noGit)
		},
	}

	cmd.Flags().StringVarP(&venv, "venv", "v", "", "create this kind of environment (virtualenv|conda)")
	cmd.Flags().StringVar(&python, "python", "", "python version for the created environment")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "don't initialize a git repository")
	return cmd
}

func (a *App) runNew(ctx context.Context, name, venv, python string, noGit bool) error {
	kind := env.KindNone
	if venv != "" {
		parsed, ok := env.ParseKind(venv)
		if !ok || (parsed != env.KindVirtualEnv && parsed != env.KindConda) {
			return fmt.Errorf("unknown environment kind %q (virtualenv|conda)", venv)
		}
		kind = parsed
	}

	path := filepath.Join(a.Config.ProjectsDir, name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("project %q already exists at %s; resume it with 'workon checkout %s'", name, path, name)
	}

	// Best effort: point out a remote twin before creating a local one.
	if a.Config.HasAPICreds() && a.Config.Username != "" {
		if _, err := a.GitHub.GetRepo(ctx, a.Config.Username, name); err == nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("note: %q already exists on your GitHub; 'workon checkout %s' would clone it", name, name)))
		} else if !errors.Is(err, github.ErrNotFound) {
			a.Logger.Debug("remote existence check failed", "error", err)
		}
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	fmt.Println(goodStyle.Render("created: ") + path)

	if *a.Config.Git && !noGit {
		if err := a.Git.Init(ctx, path); err != nil {
			return fmt.Errorf("init git repo: %w", err)
		}
	}

	if kind != env.KindNone {
		if err := a.Provisioner.Provision(ctx, path, kind, python); err != nil {
			return fmt.Errorf("project created, but environment setup failed: %w", err)
		}
		fmt.Println(goodStyle.Render("environment ready: ") + kind.String())
	}

	a.openEditor(ctx, path)
	return nil
}
