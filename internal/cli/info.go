package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info NAME",
		Short: "Show metadata for one of your GitHub repositories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config.Username == "" {
				return fmt.Errorf("set 'username' in the config to look up remote repositories")
			}

			repo, err := app.GitHub.GetRepo(cmd.Context(), app.Config.Username, args[0])
			if err != nil {
				return err
			}

			fmt.Println(headingStyle.Render(repo.Owner + "/" + repo.Name))
			fmt.Printf("  url:            %s\n", repo.HTMLURL)
			fmt.Printf("  default branch: %s\n", repo.DefaultBranch)
			fmt.Printf("  private:        %t\n", repo.Private)
			fmt.Printf("  fork:           %t\n", repo.Fork)
			if !repo.PushedAt.IsZero() {
				fmt.Printf("  last pushed:    %s\n", repo.PushedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	return cmd
}
