package cli

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/workon-sh/workon/internal/inventory"
)

func newListCmd(app *App) *cobra.Command {
	var (
		remote bool
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show your development projects",
		Long: `By default lists the projects in your local projects directory. With
--remote only your GitHub repositories are shown; with --all both sides are
merged and each project's sync status is displayed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote && all {
				return fmt.Errorf("--remote and --all cannot be used together")
			}

			ctx := cmd.Context()
			switch {
			case all:
				snap, err := app.gather(ctx)
				if err != nil {
					return err
				}
				printWarnings(snap)
				renderMerged(snap.Views)
			case remote:
				repos, err := app.GitHub.FetchAllRepos(ctx, app.forceRefresh)
				if err != nil {
					return err
				}
				fmt.Println(headingStyle.Render("Remote projects"))
				for _, r := range repos {
					line := "  " + r.Name
					if r.Fork {
						line += mutedStyle.Render(" (fork)")
					}
					fmt.Println(line)
				}
			default:
				snap, err := app.Gatherer.GatherLocal(ctx)
				if err != nil {
					return err
				}
				printWarnings(snap)
				fmt.Println(headingStyle.Render("Local projects"))
				for _, v := range snap.Views {
					env := ""
					if v.Local.Environment.String() != "none" {
						env = mutedStyle.Render(" [" + v.Local.Environment.String() + "]")
					}
					fmt.Println("  " + v.Name + env)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&remote, "remote", "r", false, "list projects on your GitHub")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list local and remote projects with sync status")
	return cmd
}

func renderMerged(views []inventory.ProjectView) {
	fmt.Println(headingStyle.Render("Projects"))

	nameWidth := 0
	for _, v := range views {
		if w := runewidth.StringWidth(v.Name); w > nameWidth {
			nameWidth = w
		}
	}

	for _, v := range views {
		status := v.Status()
		var styled string
		switch status {
		case "synced":
			styled = goodStyle.Render(status)
		case "not cloned":
			styled = warnStyle.Render(status)
		default:
			styled = mutedStyle.Render(status)
		}

		env := ""
		if v.Local != nil && v.Local.Environment.String() != "none" {
			env = mutedStyle.Render("  [" + v.Local.Environment.String() + "]")
		}
		fmt.Printf("  %s  %s%s\n", runewidth.FillRight(v.Name, nameWidth), styled, env)
	}
}
