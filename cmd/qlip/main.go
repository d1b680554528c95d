// qlip: clipboard history manager.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/qlip/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qlip",
		Short: "Clipboard history manager",
		Long: `qlip records everything copied to the system clipboard and keeps a
searchable history with favorites.

Run "qlip run" to start the daemon. The other commands talk to the running
daemon over its local socket.

Config file search order (first found wins):
  /etc/qlip/qlip.toml
  $HOME/.config/qlip/qlip.toml
  path supplied via --config

All flags can be set via QLIP_<FLAG> env vars or config-file keys.
See "qlip run --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newListCmd(),
		newAddCmd(),
		newFavCmd(),
		newRmCmd(),
		newClearCmd(),
		newUseCmd(),
		newSaveCmd(),
		newPauseCmd(true),
		newPauseCmd(false),
		newWatchCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qlip %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	logging.Setup(logging.Resolve(interactive, formatStr, levelStr))
}
