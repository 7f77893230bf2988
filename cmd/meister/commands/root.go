// Package commands implements the CLI commands for meister.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/meister/internal/app"
	"go.trai.ch/meister/internal/build"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
)

// CLI represents the command line interface for meister.
type CLI struct {
	app     Application
	logger  ports.Logger
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, opts app.BuildOptions) error
	Plan(ctx context.Context, opts app.BuildOptions) ([][]domain.Task, error)
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// New creates a new CLI instance with the given app. Running the root command
// without a subcommand builds.
func New(a Application, log ports.Logger) *CLI {
	c := &CLI{
		app:    a,
		logger: log,
	}

	rootCmd := &cobra.Command{
		Use:           "meister",
		Short:         "Compile, minify and fingerprint front-end assets",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")
			c.logger.SetJSON(jsonOutput)
			c.logger.SetVerbose(verbose)
		},
		RunE: c.runBuild,
	}

	// Defined before the version flag so that -v stays with --verbose.
	rootCmd.PersistentFlags().StringP("config", "c", domain.ConfigFileName, "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("json", false, "Write log output as JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	addBuildFlags(rootCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c.rootCmd = rootCmd
	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
