package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workon-sh/workon/internal/env"
	"github.com/workon-sh/workon/internal/inventory"
	"github.com/workon-sh/workon/internal/reconcile"
	"github.com/workon-sh/workon/internal/resolve"
)

func newCheckoutCmd(app *App) *cobra.Command {
	var (
		venv   string
		branch string
		python string
		noOpen bool
	)

	cmd := &cobra.Command{
		Use:   "checkout NAME",
		Short: "Resume a project, cloning and setting it up if needed",
		Long: `Checkout finds the named project across your local projects directory and
your GitHub repositories, clones it when it only exists remotely, and
optionally creates its development environment and switches branch.

The name doesn't have to be exact: the closest match above the configured
similarity threshold is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := reconcile.Options{
				Provision:     venv != "",
				Branch:        branch,
				PythonVersion: python,
			}
			if venv != "" {
				kind, ok := env.ParseKind(venv)
				if !ok {
					return fmt.Errorf("unknown environment kind %q (virtualenv|conda|poetry|flit|requirements)", venv)
				}
				opts.EnvKind = kind
			}
			return app.runCheckout(cmd.Context(), args[0], opts, noOpen)
		},
	}

	cmd.Flags().StringVarP(&venv, "venv", "v", "", "create this kind of environment (virtualenv|conda|poetry|flit|requirements)")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "switch to this branch after checkout")
	cmd.Flags().StringVar(&python, "python", "", "python version for created environments, e.g. 3.12")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "don't open the project in the configured editor")
	return cmd
}

func (a *App) runCheckout(ctx context.Context, query string, opts reconcile.Options, noOpen bool) error {
	snap, err := a.gather(ctx)
	if err != nil {
		return err
	}
	printWarnings(snap)

	resolver := resolve.New(a.Config.MatchThreshold)
	res, err := resolver.Resolve(query, snap.Views)
	if err != nil {
		var nm *resolve.NoMatchError
		if errors.As(err, &nm) {
			return fmt.Errorf("%w; check the spelling or create it with 'workon new %s'", nm, query)
		}
		return err
	}

	if !res.Exact {
		fmt.Printf("%s %s\n", mutedStyle.Render(fmt.Sprintf("%q matched", query)), matchStyle.Render(fmt.Sprintf("%s (score %d)", res.Best.Name, res.Score)))
	}

	machine := reconcile.NewMachine(a.Git, a.Provisioner, env.Detect, a.Config.ProjectsDir, a.Logger)
	result := machine.Run(ctx, res.Best, opts)

	switch result.State {
	case reconcile.StateConflict, reconcile.StateFailed:
		return errors.New(result.Reason)
	}

	if result.Partial {
		fmt.Println(warnStyle.Render("done with warnings: ") + result.Reason)
	} else {
		fmt.Println(goodStyle.Render("done: ") + result.Reason)
	}

	if !noOpen && result.Path != "" {
		a.openEditor(ctx, result.Path)
	}
	return nil
}

// gather fetches the merged inventory, degrading to a local-only snapshot
// when no API credentials are configured.
func (a *App) gather(ctx context.Context) (*inventory.Snapshot, error) {
	if !a.Config.HasAPICreds() {
		fmt.Println(warnStyle.Render("no GitHub token configured; only local projects are visible"))
		return a.Gatherer.GatherLocal(ctx)
	}
	return a.Gatherer.Gather(ctx, a.forceRefresh)
}

func printWarnings(snap *inventory.Snapshot) {
	for _, w := range snap.Warnings {
		fmt.Println(warnStyle.Render("skipped: ") + w.Path + mutedStyle.Render(" ("+w.Reason+")"))
	}
}

// openEditor launches the configured editor on dir. Failure to open is
// reported but never fails the command; the checkout itself succeeded.
func (a *App) openEditor(ctx context.Context, dir string) {
	editor := strings.TrimSpace(a.Config.Editor)
	if editor == "" || strings.EqualFold(editor, "none") {
		return
	}
	a.Logger.Debug("opening editor", "editor", editor, "dir", dir)
	if err := exec.CommandContext(ctx, editor, dir).Run(); err != nil {
		fmt.Println(warnStyle.Render("couldn't open editor: ") + err.Error())
	}
}
