package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"Drawboard/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := defaultConfig()

	rootCmd := &cobra.Command{
		Use:   "drawboard [drawboard://host:port]",
		Short: "Join a shared drawing board",
		Long: `Drawboard joins a collaborative drawing board server and opens a window
showing the shared canvas. Strokes appear locally at once and are reconciled
with the server's confirmed order as acknowledgements arrive.

The server may be given as a drawboard:// link, a ws(s):// or http(s):// URL,
or host:port. With --discover the first server found on the local network
is joined.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			serverURL, err := resolveURL(cmd.Context(), cfg, args, env.logger)
			if err != nil {
				return err
			}
			return ui.RunApp(cmd.Context(), ui.AppConfig{
				URL:      serverURL,
				Settings: cfg.sessionSettings(),
				Metrics:  env.metrics,
				Logger:   env.logger,
			})
		},
	}

	cfg.bind(rootCmd)
	rootCmd.AddCommand(
		snapshotCmd(cfg),
		discoverCmd(cfg),
	)
	return rootCmd
}
