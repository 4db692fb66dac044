package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/tabflow/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags
	a := &app{}

	root := &cobra.Command{
		Use:           "tabflow",
		Short:         "Build and run tabular operation pipelines",
		Version:       version.Get().String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: tabflow.yaml, config/tabflow.yaml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "env file loaded before the environment")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "overrides logging.level")

	root.AddCommand(
		newValidateCmd(a),
		newRunCmd(a),
		newServeCmd(a),
	)
	return root
}
