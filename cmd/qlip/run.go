package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"go.klb.dev/qlip/internal/blob"
	"go.klb.dev/qlip/internal/clip"
	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/httpapi"
	"go.klb.dev/qlip/internal/ipc"
	"go.klb.dev/qlip/internal/persist"
	"go.klb.dev/qlip/internal/rpc"
	"go.klb.dev/qlip/internal/server"
	"go.klb.dev/qlip/internal/watcher"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard history daemon",
		Long: `Starts the qlip daemon. It watches the system clipboard, records every
new item in the history and saves the history after each change.

CLI tools reach the daemon on a local socket ($QLIP_SOCKET overrides the
path). Pass --http-addr to also serve the JSON API over TCP.

Config file search order:
  /etc/qlip/qlip.toml
  $HOME/.config/qlip/qlip.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → QLIP_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.Bool("standalone", false, "run as a standalone window instead of a tray/background app (reported to UI clients)")
	f.String("history-file", "", "history snapshot path (default ~/.qlip.json, ~/.qlip.db for sqlite)")
	f.String("backend", persist.BackendJSON, "history storage: json|sqlite")
	f.String("passphrase", "", "encrypt the json history file with this passphrase")
	f.Int("max-entries", 0, "keep at most this many non-favorite entries (0 = unlimited)")
	f.Int("max-item-size", watcher.DefaultMaxItemSize, "largest clipboard item captured, in bytes")
	f.String("image-dir", defaultImageDir(), "directory for captured images")
	f.String("http-addr", "", "also serve the JSON API on this TCP address (e.g. 127.0.0.1:8753)")
	f.StringSlice("http-allow-origin", nil, "browser origins allowed to call the HTTP API (default: none)")
	f.Bool("no-watch", false, "do not watch the system clipboard (history only)")
	f.Duration("poll-interval", clip.DefaultPollInterval, "clipboard poll interval")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(parent context.Context, v *viper.Viper) error {
	setupLogging(v)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := v.GetString("backend")
	path := v.GetString("history-file")
	if path == "" {
		path = defaultHistoryFile(backend)
	}
	adapter, err := persist.Open(backend, path, v.GetString("passphrase"))
	if err != nil {
		return err
	}
	defer adapter.Close()

	store := history.New(history.WithMaxEntries(v.GetInt("max-entries")))
	restoreErr := persist.Restore(ctx, store, adapter)
	// Blobs may belong to an unreadable snapshot; only prune against a
	// history that loaded.
	restored := restoreErr == nil

	blobs := blob.New(v.GetString("image-dir"))
	if restored {
		pruneImages(store, blobs)
	}

	info := rpc.Info{
		Version:     Version,
		Persistence: adapter.Name(),
		Standalone:  v.GetBool("standalone"),
		StartedAt:   time.Now().UTC(),
	}
	slog.Info("qlip starting",
		"version", Version,
		"history", adapter.Name(),
		"entries", store.Len(),
		"standalone", info.Standalone,
		"watch", !v.GetBool("no-watch"),
	)

	ipcLn, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("ipc: %w", err)
	}
	slog.Info("IPC socket listening", "path", ipc.SocketPath())

	var httpLn net.Listener
	if addr := v.GetString("http-addr"); addr != "" {
		if httpLn, err = net.Listen("tcp", addr); err != nil {
			ipcLn.Close()
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		slog.Info("HTTP API listening", "addr", httpLn.Addr())
	}

	eg, ctx := errgroup.WithContext(ctx)

	var cb rpc.Clipboard
	if !v.GetBool("no-watch") {
		cbBackend := clip.New(v.GetDuration("poll-interval"))
		defer cbBackend.Close()
		w := watcher.New(store, cbBackend, blobs, v.GetInt("max-item-size"))
		cb = w
		eg.Go(func() error {
			w.Run(ctx)
			return nil
		})
	}

	svc := rpc.NewService(store, cb, info)
	api := httpapi.New(svc, v.GetStringSlice("http-allow-origin"))
	g := grpc.NewServer(grpc.UnaryInterceptor(rpc.LogUnary))
	rpc.Register(g, svc)

	eg.Go(func() error { return server.Serve(ctx, ipcLn, g, api) })
	if httpLn != nil {
		eg.Go(func() error { return server.ServeHTTP(ctx, httpLn, api) })
	}

	if errors.Is(restoreErr, persist.ErrSaveDisabled) {
		slog.Error("history will not be saved this session; fix or remove the snapshot and restart",
			"history", adapter.Name())
	} else {
		eg.Go(func() error { return persist.Autosave(ctx, store, adapter, persist.DefaultSaveDelay) })
	}

	err = eg.Wait()
	if restored {
		pruneImages(store, blobs)
	}
	slog.Info("qlip stopped", "entries", store.Len())
	return err
}

// pruneImages removes image blobs no entry refers to.
func pruneImages(store *history.Store, blobs *blob.Store) {
	keep := make(map[string]bool)
	for _, e := range store.List() {
		if e.Content.Kind == history.KindImage {
			keep[e.Content.Data] = true
		}
	}
	n, err := blobs.Prune(keep)
	if err != nil {
		slog.Warn("image cleanup failed", "dir", blobs.Dir(), "err", err)
		return
	}
	if n > 0 {
		slog.Debug("image cleanup", "removed", n)
	}
}
