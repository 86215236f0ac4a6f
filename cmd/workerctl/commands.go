package main

import (
	"fmt"

	"github.com/danmuck/worldsync/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "workerctl",
		Short:         "Run a worldsync worker against a simulation runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a worker TOML config (env WORLDSYNC_* overrides it)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the runtime and run the frame loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runWorker(cmd.Context(), cfg)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the workerctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage worker config files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the default worker config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the config (file plus environment) and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.Token = redact(cfg.Token)
			return config.Encode(cmd.OutOrStdout(), cfg)
		},
	}

	configCmd.AddCommand(initCmd, validateCmd)
	root.AddCommand(runCmd, versionCmd, configCmd)
	return root
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "<redacted>"
}
