package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/ipc"
	"go.klb.dev/qlip/internal/rpc"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print history changes as JSON lines until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !ipc.IsRunning() {
				return errNotRunning
			}
			c, err := rpc.Dial()
			if err != nil {
				return err
			}
			defer c.Close()

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			enc := json.NewEncoder(cmd.OutOrStdout())
			err = c.Watch(ctx, func(ch history.Change) error { return enc.Encode(ch) })
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
}
