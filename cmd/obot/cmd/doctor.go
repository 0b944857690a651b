package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the local environment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "config root:  %s\n", env.ConfigRoot)
			fmt.Fprintf(out, "sessions dir: %s\n", env.Sessions.Dir())
			if env.Host.MemValid {
				fmt.Fprintf(out, "memory:       %d GB (tier %s)\n", env.Host.MemTotalGB, env.Host.Tier)
			} else {
				fmt.Fprintln(out, "memory:       detection failed, assuming minimal tier")
			}
			if env.Host.HasGPU() {
				for _, gpu := range env.Host.GPUs {
					fmt.Fprintf(out, "gpu:          %s %s\n", gpu.Vendor, gpu.Product)
				}
			} else {
				fmt.Fprintln(out, "gpu:          none detected")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			models, err := env.Backend.ListModels(ctx)
			if err != nil {
				fmt.Fprintf(out, "backend:      UNREACHABLE at %s (%v)\n", env.Backend.BaseURL(), err)
				return nil
			}
			fmt.Fprintf(out, "backend:      ok, %d models at %s\n", len(models), env.Backend.BaseURL())

			ids, err := env.Sessions.List()
			if err == nil {
				fmt.Fprintf(out, "sessions:     %d stored\n", len(ids))
			}
			return nil
		},
	}
}
