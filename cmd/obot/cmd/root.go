// Package cmd is the obot command tree. The CLI is a thin rendering
// surface: all behavior lives in the internal packages.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cadenroberts/ollamabot/internal/config"
	"github.com/cadenroberts/ollamabot/internal/logging"
	"github.com/cadenroberts/ollamabot/internal/service"
)

var (
	flagConfigFile string
	flagConfigRoot string
	flagLogLevel   string
	flagLogFormat  string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "obot",
		Short:         "Local-first agentic orchestrator for your codebase",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfigFile, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flagConfigRoot, "config-root", "", "override the configuration root directory")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format (auto, text, json)")

	root.AddCommand(
		newRunCmd(),
		newSessionsCmd(),
		newCheckpointCmd(),
		newModelsCmd(),
		newDoctorCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree.
func Execute() error {
	return newRootCmd().Execute()
}

// buildEnvironment loads configuration and wires the service layer.
func buildEnvironment() (*service.Environment, error) {
	root := flagConfigRoot
	if root == "" {
		r, err := config.ConfigRoot()
		if err != nil {
			return nil, err
		}
		root = r
	}

	loader := config.NewLoader().WithConfigRoot(root)
	if flagConfigFile != "" {
		loader = loader.WithConfigFile(flagConfigFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	return service.NewEnvironment(cfg, root, logger)
}
