package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/worldsync/internal/devruntime"
	"github.com/danmuck/worldsync/internal/observability"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "runtimectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "runtimectl",
		Short:         "Serve a local development runtime for worldsync workers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := devruntime.DefaultConfig()
			if configPath != "" {
				loaded, err := loadRuntimeConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			logger := observability.InitLogger("runtimectl")
			return devruntime.New(cfg, &logger).ListenAndServe(cmd.Context())
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to a runtime TOML config")
	return root
}
