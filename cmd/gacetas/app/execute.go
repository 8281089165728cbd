package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/municipiolabs/gacetas/cmd/gacetas/cmd"
)

// Execute runs the gacetas CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand builds the root cobra command with all
// subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gacetas",
		Short:   "Municipal document catalog",
		Version: a.Version(),
		Long: `Gacetas manages a municipal document catalog: categorized official
documents (ordinances, decrees, resolutions, session minutes) with
public browsing and an admin mode for uploads and catalog changes.

State lives either in local JSON documents or in PostgreSQL with
object storage, selected by the configured backend.`,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			// Flags are parsed now; rebuild the logger so -v/-q take
			// effect.
			logger := NewLogger(a.config)
			a.logger = &logger
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "",
		"config file (default is $HOME/.gacetas.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false,
		"verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false,
		"minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false,
		"disable colored output")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", "",
		"log level: trace, debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().StringVar(&a.config.Backend, "backend", a.config.Backend,
		"persistence backend: local or postgres")

	rootCmd.AddCommand(
		cmd.NewServeCommand(a),
		cmd.NewExportCommand(a),
		cmd.NewImportCommand(a),
		cmd.NewLoginCommand(a),
		cmd.NewLogoutCommand(a),
	)

	return rootCmd
}
