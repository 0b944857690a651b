package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadenroberts/ollamabot/internal/service"
)

func newRunCmd() *cobra.Command {
	var workspace string
	var useLLMPolicy bool

	cmd := &cobra.Command{
		Use:   "run <task...>",
		Short: "Drive a task through the five-phase pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			if workspace == "" {
				workspace, err = os.Getwd()
				if err != nil {
					return err
				}
			}

			runner, err := service.NewRunner(env, workspace,
				service.WithLLMPolicy(useLLMPolicy))
			if err != nil {
				return err
			}

			result, err := runner.Run(cmd.Context(), strings.Join(args, " "))
			if result.SessionID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "session: %s\nflow:    %s\ntokens:  %d\nactions: %d\nelapsed: %s\n",
					result.SessionID, result.FlowCode, result.Tokens, result.Actions, result.Duration.Round(timeRound))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: cwd)")
	cmd.Flags().BoolVar(&useLLMPolicy, "llm-policy", false, "let the orchestrator model pick phases and processes")
	return cmd
}
