package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/qlip/internal/clip"
	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/rpc"
)

func newAddCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "add [text...]",
		Short: "Add an entry to the history (reads stdin when no text is given)",
		Long: `Adds an entry to the history as if it had been copied.

The kind is detected from the content (url, file path or text) unless --kind
is given. Adding the same content as the newest entry is a no-op and prints
that entry's id.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := addContent(cmd.InOrStdin(), args, v.GetString("kind"))
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				id, err := c.Add(ctx, content)
				if err != nil {
					return fmt.Errorf("add: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}

	cmd.Flags().String("kind", "", "content kind: text|url|file (default: detect)")
	addConfigFlag(cmd)

	return cmd
}

// addContent builds the content to add from args, or from r when args is empty.
func addContent(r io.Reader, args []string, kind string) (history.Content, error) {
	var data string
	if len(args) > 0 {
		data = strings.Join(args, " ")
	} else {
		b, err := io.ReadAll(r)
		if err != nil {
			return history.Content{}, fmt.Errorf("reading stdin: %w", err)
		}
		data = string(b)
	}
	if data == "" {
		return history.Content{}, history.ErrEmptyContent
	}
	if kind == "" {
		return clip.Classify(data), nil
	}
	k, err := history.ParseKind(kind)
	if err != nil {
		return history.Content{}, err
	}
	if k == history.KindImage {
		return history.Content{}, fmt.Errorf("%w: images can only be captured from the clipboard", history.ErrInvalidKind)
	}
	return history.Content{Kind: k, Data: data}, nil
}
