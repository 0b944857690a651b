package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cadenroberts/ollamabot/internal/service"
)

const timeRound = 100 * time.Millisecond

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and resume persisted sessions",
	}
	cmd.AddCommand(newSessionsListCmd(), newSessionsShowCmd(), newSessionsResumeCmd(), newSessionsMigrateCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			ids, err := env.Sessions.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTEPS\tPLATFORM\tDESCRIPTION")
			for _, id := range ids {
				info, err := env.Sessions.GetInfo(id)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", info.ID, info.StepCount, info.Platform, info.Description)
			}
			return w.Flush()
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session's traversal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			id, err := env.Sessions.Resolve(args[0])
			if err != nil {
				return err
			}
			sess, err := env.Sessions.Load(id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session:  %s\n", sess.SessionID)
			fmt.Fprintf(out, "task:     %s\n", sess.Task.Description)
			fmt.Fprintf(out, "status:   %s\n", sess.Task.Status)
			fmt.Fprintf(out, "flow:     %s\n", sess.OrchestrationState.FlowCode)
			fmt.Fprintf(out, "tokens:   %d\n", sess.Stats.TotalTokens)
			fmt.Fprintf(out, "steps:    %d\n", len(sess.ConversationHistory))
			fmt.Fprintf(out, "files:    %d\n", len(sess.FilesModified))
			for _, cp := range sess.Checkpoints {
				fmt.Fprintf(out, "checkpoint: %s (%s) flow=%s\n", cp.Name, cp.ID, cp.FlowCode)
			}
			return nil
		},
	}
}

func newSessionsResumeCmd() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume an interrupted session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			id, err := env.Sessions.Resolve(args[0])
			if err != nil {
				return err
			}
			if workspace == "" {
				sess, err := env.Sessions.Load(id)
				if err != nil {
					return err
				}
				workspace = sess.Workspace.Path
			}
			if workspace == "" {
				workspace, _ = os.Getwd()
			}

			runner, err := service.NewRunner(env, workspace)
			if err != nil {
				return err
			}
			result, err := runner.Resume(cmd.Context(), id)
			if result.SessionID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "session: %s\nflow:    %s\n", result.SessionID, result.FlowCode)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: the session's)")
	return cmd
}

func newSessionsMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <id>",
		Short: "Migrate a legacy session directory to the unified format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.Sessions.Migrate(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", args[0])
			return nil
		},
	}
}
