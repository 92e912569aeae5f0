package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the workon config",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(mutedStyle.Render("# " + app.configPath))
			redacted := *app.Config
			if redacted.Token != "" {
				redacted.Token = "(set)"
			}
			out, err := yaml.Marshal(&redacted)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit",
		Short: "Open the config file in your editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			editor := app.Config.Editor
			if editor == "" || editor == "none" {
				return fmt.Errorf("no editor configured; set 'editor' in the config or $EDITOR")
			}
			e := exec.CommandContext(cmd.Context(), editor, app.configPath)
			e.Stdin, e.Stdout, e.Stderr = os.Stdin, os.Stdout, os.Stderr
			return e.Run()
		},
	}

	cmd.AddCommand(show, edit)
	return cmd
}
