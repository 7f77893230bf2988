package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/meister/internal/adapters/config"
	"go.trai.ch/meister/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Clean the destination and compile all assets",
		Args:  cobra.NoArgs,
		RunE:  c.runBuild,
	}
	addBuildFlags(cmd)
	return cmd
}

// addBuildFlags registers the flags shared by build and plan. Defaults come from
// the environment so a .env file can switch modes.
func addBuildFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolP("production", "p", config.EnvBool(config.EnvProduction, false), "Minify instead of writing sourcemaps")
	flags.BoolP("watch", "w", config.EnvBool(config.EnvWatch, false), "Rebuild when sources change")
	flags.BoolP("serve", "s", config.EnvBool(config.EnvServe, false), "Serve the destination with live reload")
	flags.BoolP("manifest", "m", config.EnvBool(config.EnvManifest, false), "Fingerprint filenames and write manifest.json")
	flags.Bool("sourcemaps", false, "Write sourcemaps, also in production")
	flags.Bool("no-cache", false, "Bypass the artifact cache")
	flags.Bool("strict", false, "Fail the build on compile errors")
}

func buildOptions(cmd *cobra.Command) app.BuildOptions {
	configPath, _ := cmd.Flags().GetString("config")
	production, _ := cmd.Flags().GetBool("production")
	watch, _ := cmd.Flags().GetBool("watch")
	serve, _ := cmd.Flags().GetBool("serve")
	manifest, _ := cmd.Flags().GetBool("manifest")
	sourcemaps, _ := cmd.Flags().GetBool("sourcemaps")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	strict, _ := cmd.Flags().GetBool("strict")

	return app.BuildOptions{
		ConfigPath: configPath,
		Production: production,
		Watch:      watch,
		Serve:      serve,
		Manifest:   manifest,
		Sourcemaps: sourcemaps,
		NoCache:    noCache,
		Strict:     strict,
	}
}

func (c *CLI) runBuild(cmd *cobra.Command, _ []string) error {
	return c.app.Build(cmd.Context(), buildOptions(cmd))
}
