package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/rpc"
)

func newSaveCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "save <id>",
		Short: "Write an entry to a qlip_save_<timestamp>.txt file",
		Long: `Writes the full content of a text, url or file entry to
qlip_save_YYYYMMDD_HHMMSS.txt in --dir (default: current directory) and
prints the path. Useful for entries too long to read in the list.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				e, err := c.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("entry %d: %w", id, err)
				}
				path, err := saveEntry(v.GetString("dir"), e, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	cmd.Flags().String("dir", ".", "directory to write the file into")
	addConfigFlag(cmd)

	return cmd
}

func saveFileName(t time.Time) string {
	return "qlip_save_" + t.Format("20060102_150405") + ".txt"
}

// saveEntry writes e's data to a new file in dir and returns its path.
// An existing file is never overwritten.
func saveEntry(dir string, e history.Entry, now time.Time) (string, error) {
	if e.Content.Kind == history.KindImage {
		return "", fmt.Errorf("entry %d is an image; only text, url and file entries can be saved", e.ID)
	}
	path := filepath.Join(dir, saveFileName(now))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	if _, err := f.WriteString(e.Content.Data); err != nil {
		f.Close()
		return "", fmt.Errorf("save: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return path, nil
}
