package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/meister/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the build output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cache, _ := cmd.Flags().GetBool("cache")
			all, _ := cmd.Flags().GetBool("all")

			opts := app.CleanOptions{ConfigPath: configPath}
			switch {
			case all:
				opts.Output = true
				opts.Cache = true
			case cache:
				opts.Cache = true
			default:
				opts.Output = true
			}

			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().Bool("cache", false, "Purge the artifact cache instead of the build output")
	cmd.Flags().BoolP("all", "a", false, "Remove the build output and purge the artifact cache")

	return cmd
}
