package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRemoveCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"remove"},
		Short:   "Delete a project from your local filesystem",
		Long: `Removes the named project directory recursively. Only the local working
copy is touched; nothing happens to the remote repository.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			snap, err := app.Gatherer.GatherLocal(cmd.Context())
			if err != nil {
				return err
			}

			view, ok := snap.Find(name)
			if !ok || view.Local == nil {
				return fmt.Errorf("project %q not found in %s", name, app.Config.ProjectsDir)
			}

			if !force {
				fmt.Printf("This will remove %s from your filesystem. This is irreversible. Continue? [y/N] ", view.Local.Path)
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("aborted")
				}
				answer := strings.ToLower(strings.TrimSpace(line))
				if answer != "y" && answer != "yes" {
					return fmt.Errorf("aborted")
				}
			}

			if err := os.RemoveAll(view.Local.Path); err != nil {
				return fmt.Errorf("remove project: %w", err)
			}
			fmt.Println(goodStyle.Render("removed: ") + view.Local.Path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
