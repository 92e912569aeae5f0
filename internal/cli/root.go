// Package cli wires the core library into the workon command tree. All
// business decisions live below it; commands only gather input, call the
// core and render structured results.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/workon-sh/workon/internal/config"
	"github.com/workon-sh/workon/internal/env"
	"github.com/workon-sh/workon/internal/git"
	"github.com/workon-sh/workon/internal/github"
	"github.com/workon-sh/workon/internal/inventory"
	"github.com/workon-sh/workon/internal/logging"
	"github.com/workon-sh/workon/internal/scan"
)

// App holds the per-invocation object graph. It is built once in the root
// command's PersistentPreRunE; nothing in it is shared across invocations.
type App struct {
	configPath   string
	forceRefresh bool

	Config      *config.Config
	Logger      *slog.Logger
	GitHub      *github.Client
	Git         *git.Client
	Scanner     *scan.Scanner
	Gatherer    *inventory.Gatherer
	Provisioner *env.Provisioner
}

func (a *App) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.Config = cfg

	logger, err := logging.Setup(cfg.Log.File, cfg.Log.Level, false)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	a.Logger = logger

	a.GitHub = github.NewClient(cfg.Token, cfg.CacheTimeout, logger)
	a.Git = git.NewClient(logger)
	a.Scanner = scan.New(cfg.ProjectsDir, logger)
	a.Gatherer = inventory.NewGatherer(a.GitHub, a.Scanner, logger)
	a.Provisioner = env.NewProvisioner(cfg.CondaBin, cfg.CommonPackages, logger)
	return nil
}

// NewRootCmd builds the workon command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:           "workon",
		Short:         "Discover, clone and set up your development projects",
		Long:          "workon keeps your local projects directory and your GitHub repositories in sync:\nit finds a project by (fuzzy) name, clones it if needed, and sets up its\ndevelopment environment.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Close()
		},
	}

	root.PersistentFlags().StringVar(&app.configPath, "config", config.DefaultPath(), "path to the config file")
	root.PersistentFlags().BoolVar(&app.forceRefresh, "refresh", false, "bypass the remote inventory cache")

	root.AddCommand(
		newCheckoutCmd(app),
		newListCmd(app),
		newPullCmd(app),
		newNewCmd(app),
		newRemoveCmd(app),
		newInfoCmd(app),
		newConfigCmd(app),
	)
	return root
}

// Execute runs the CLI and reports failure via exit code.
func Execute() {
	root := NewRootCmd()

	ctx, stop := signalContext()
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}
