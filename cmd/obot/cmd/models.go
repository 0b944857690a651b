package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cadenroberts/ollamabot/internal/core"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show the model each role resolves to on this host",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "tier:\t%s (%d GB)\n", env.Coordinator.Tier(), env.Host.MemTotalGB)
			fmt.Fprintln(w, "ROLE\tMODEL")
			for _, role := range core.AllRoles() {
				id, err := env.Coordinator.SelectForRole(role)
				if err != nil {
					id = "(unconfigured)"
				}
				fmt.Fprintf(w, "%s\t%s\n", role, id)
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the obot version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "obot %s\n", buildVersion)
		},
	}
}

// buildVersion is stamped at release time via -ldflags.
var buildVersion = "dev"
