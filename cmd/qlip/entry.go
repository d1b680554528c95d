package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/qlip/internal/rpc"
)

func newFavCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "fav <id>",
		Aliases: []string{"favorite", "star"},
		Short:   "Toggle the favorite flag of an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				e, err := c.ToggleFavorite(ctx, id)
				if err != nil {
					return fmt.Errorf("entry %d: %w", id, err)
				}
				state := "removed from favorites"
				if e.Favorite {
					state = "added to favorites"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", id, state)
				return nil
			})
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete entries",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				var errs []error
				for _, id := range ids {
					if err := c.Delete(ctx, id); err != nil {
						errs = append(errs, fmt.Errorf("entry %d: %w", id, err))
					}
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the whole history, favorites included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Only an explicit flag confirms; env and config are not consulted.
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to clear the history without --yes")
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				return c.DeleteAll(ctx)
			})
		},
	}
	cmd.Flags().Bool("yes", false, "confirm deleting every entry")
	return cmd
}

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Put an entry back on the system clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				if err := c.Use(ctx, id); err != nil {
					return fmt.Errorf("entry %d: %w", id, err)
				}
				return nil
			})
		},
	}
}

func newPauseCmd(pause bool) *cobra.Command {
	use, short := "resume", "Resume clipboard capture"
	if pause {
		use, short = "pause", "Stop recording clipboard changes until resumed"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *rpc.Client) error {
				st, err := c.SetPaused(ctx, pause)
				if err != nil {
					return fmt.Errorf("%s: %w", use, err)
				}
				state := "capturing"
				if st.Paused {
					state = "paused"
				}
				fmt.Fprintln(cmd.OutOrStdout(), state)
				return nil
			})
		},
	}
}
