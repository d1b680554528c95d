package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/qlip/internal/ipc"
	"go.klb.dev/qlip/internal/rpc"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon status",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				st, err := c.Status(ctx)
				if err != nil {
					return fmt.Errorf("status: %w", err)
				}
				if v.GetBool("json") {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(st)
				}
				printStatus(cmd.OutOrStdout(), st, time.Now())
				return nil
			})
		},
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func printStatus(out io.Writer, st *rpc.StatusResponse, now time.Time) {
	capture := "off"
	switch {
	case st.Clipboard == "":
	case st.Paused:
		capture = fmt.Sprintf("paused (%s)", st.Clipboard)
	default:
		capture = fmt.Sprintf("on (%s)", st.Clipboard)
	}
	mode := "background"
	if st.Standalone {
		mode = "standalone"
	}

	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", st.Version)
	fmt.Fprintf(w, "Socket:\t%s\n", ipc.SocketPath())
	fmt.Fprintf(w, "Mode:\t%s\n", mode)
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(w, "Started:\t%s (%s)\n", st.StartedAt.UTC().Format(time.RFC3339), fmtAge(st.StartedAt, now))
	}
	fmt.Fprintf(w, "History:\t%s\n", st.Persistence)
	fmt.Fprintf(w, "Entries:\t%d (%d favorites)\n", st.Entries, st.Favorites)
	fmt.Fprintf(w, "Capture:\t%s\n", capture)
	_ = w.Flush()
}
