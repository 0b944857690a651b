package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cadenroberts/ollamabot/internal/api"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only session API for external surfaces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			server := api.New(env.Sessions, addr, env.Logger)
			return server.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7777", "listen address")
	return cmd
}
