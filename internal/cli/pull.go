package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/workon-sh/workon/internal/inventory"
)

func newPullCmd(app *App) *cobra.Command {
	var (
		all   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "pull [NAME...]",
		Short: "Clone remote projects that don't exist locally",
		Long: `Pull clones your remote projects into the projects directory by name, or
all of them with --all. Projects that already exist locally are skipped and
never modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("specify project names or use --all")
			}
			return app.runPull(cmd.Context(), args, all, force)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "pull every remote project")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func (a *App) runPull(ctx context.Context, names []string, all, force bool) error {
	snap, err := a.Gatherer.Gather(ctx, a.forceRefresh)
	if err != nil {
		return err
	}
	printWarnings(snap)

	var toClone []inventory.ProjectView
	if all {
		for _, v := range snap.Views {
			if v.Local == nil && v.Remote != nil {
				toClone = append(toClone, v)
			}
		}
	} else {
		for _, name := range names {
			view, ok := snap.Find(name)
			if !ok || view.Remote == nil {
				return fmt.Errorf("%q not found on GitHub (typo?)", name)
			}
			if view.Local != nil {
				fmt.Println(mutedStyle.Render(fmt.Sprintf("skipping %q, already exists locally", view.Name)))
				continue
			}
			toClone = append(toClone, view)
		}
	}

	if len(toClone) == 0 {
		fmt.Println(goodStyle.Render("local and remote projects are in sync, nothing to pull"))
		return nil
	}

	if !force && !confirmClone(toClone) {
		return fmt.Errorf("aborted")
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		return a.pullWithProgress(ctx, toClone)
	}
	return a.pullPlain(ctx, toClone)
}

func (a *App) pullPlain(ctx context.Context, views []inventory.ProjectView) error {
	var failed int
	for _, v := range views {
		fmt.Printf("cloning %s\n", v.Name)
		if _, err := a.Git.Clone(ctx, v.Remote.CloneURL, a.Config.ProjectsDir, v.Remote.Name); err != nil {
			failed++
			fmt.Println(errorStyle.Render("failed: ") + err.Error())
			if ctx.Err() != nil {
				break
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d clones failed", failed, len(views))
	}
	fmt.Println(goodStyle.Render(fmt.Sprintf("pulled %d projects", len(views))))
	return nil
}

func (a *App) pullWithProgress(ctx context.Context, views []inventory.ProjectView) error {
	model := newProgressModel(len(views))
	p := tea.NewProgram(model, tea.WithContext(ctx))

	go func() {
		for _, v := range views {
			if ctx.Err() != nil {
				break
			}
			p.Send(cloneStartedMsg{name: v.Name})
			_, err := a.Git.Clone(ctx, v.Remote.CloneURL, a.Config.ProjectsDir, v.Remote.Name)
			p.Send(cloneFinishedMsg{name: v.Name, err: err})
		}
		p.Send(allDoneMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := final.(progressModel); ok {
		for _, f := range m.failures {
			fmt.Println(errorStyle.Render("failed: ") + f.name + ": " + f.err.Error())
		}
		if len(m.failures) > 0 {
			return fmt.Errorf("%d of %d clones failed", len(m.failures), len(views))
		}
	}
	fmt.Println(goodStyle.Render(fmt.Sprintf("pulled %d projects", len(views))))
	return nil
}

func confirmClone(views []inventory.ProjectView) bool {
	if len(views) <= 5 {
		var names []string
		for _, v := range views {
			names = append(names, v.Name)
		}
		fmt.Printf("This will clone %s. Continue? [y/N] ", strings.Join(names, ", "))
	} else {
		fmt.Printf("This will clone %d projects. Continue? [y/N] ", len(views))
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
