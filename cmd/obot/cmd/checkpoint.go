package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Create and list named traversal snapshots",
	}
	cmd.AddCommand(newCheckpointCreateCmd(), newCheckpointListCmd())
	return cmd
}

func newCheckpointCreateCmd() *cobra.Command {
	var sessionID, gitCommit, workspace string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Snapshot a session's orchestration state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			id, err := env.Sessions.Resolve(sessionID)
			if err != nil {
				return err
			}
			sess, err := env.Sessions.Load(id)
			if err != nil {
				return err
			}
			if workspace == "" {
				workspace = sess.Workspace.Path
			}

			store, err := env.Checkpoints(workspace)
			if err != nil {
				return err
			}
			cp, err := store.Create(args[0], sess.OrchestrationState.FlowCode, gitCommit, sess.SessionID)
			if err != nil {
				return err
			}
			// The session record carries the checkpoint too.
			if _, err := env.Sessions.AddCheckpoint(sess, args[0], gitCommit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checkpoint %s (%s)\n", cp.Name, cp.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (required)")
	cmd.Flags().StringVar(&gitCommit, "git-commit", "", "VCS revision to pin")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: the session's)")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func newCheckpointListCmd() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checkpoints for a workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			if workspace == "" {
				workspace, _ = os.Getwd()
			}
			store, err := env.Checkpoints(workspace)
			if err != nil {
				return err
			}
			cps, err := store.List()
			if err != nil {
				return err
			}
			for _, cp := range cps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  flow=%s\n",
					cp.Timestamp.Format("2006-01-02 15:04"), cp.ID, cp.Name, cp.FlowCode)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: cwd)")
	return cmd
}
