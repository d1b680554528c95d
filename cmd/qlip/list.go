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

	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/rpc"
)

// previewLen is how much of an entry the list shows.
const previewLen = 180

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the clipboard history, favorites first",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				entries, err := c.List(ctx, v.GetBool("favorites"))
				if err != nil {
					return fmt.Errorf("list: %w", err)
				}
				if v.GetBool("json") {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(entries)
				}
				printEntries(cmd.OutOrStdout(), entries, time.Now())
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.Bool("json", false, "output raw JSON")
	f.Bool("favorites", false, "only show favorites")
	addConfigFlag(cmd)

	return cmd
}

func printEntries(out io.Writer, entries []history.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "History is empty.")
		return
	}
	tw := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID\t\tKIND\tCAPTURED\tCONTENT\n")
	for _, e := range entries {
		star := ""
		if e.Favorite {
			star = "*"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, star, e.Content.Kind, fmtAge(e.CapturedAt, now), e.Preview(previewLen))
	}
	_ = tw.Flush()
}

func fmtAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := now.Sub(t).Round(time.Second)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return t.Local().Format("15:04:05")
	}
	return t.Local().Format("2006-01-02")
}
