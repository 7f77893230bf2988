package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/meister/internal/ui/style"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the task graph without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stages, err := c.app.Plan(cmd.Context(), buildOptions(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, stage := range stages {
				mode := "series"
				if len(stage) > 1 {
					mode = "parallel"
				}
				_, _ = fmt.Fprintf(out, "stage %d (%s)\n", i+1, mode)
				for _, task := range stage {
					steps := make([]string, len(task.Steps))
					for j, s := range task.Steps {
						steps[j] = string(s)
					}
					_, _ = fmt.Fprintf(out, "  %s %s: %s\n",
						style.Dot, task.Name.String(), strings.Join(steps, " "+style.Arrow+" "))
				}
			}
			return nil
		},
	}
	addBuildFlags(cmd)
	return cmd
}
