package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/qlip/internal/history"
	"go.klb.dev/qlip/internal/ipc"
	"go.klb.dev/qlip/internal/persist"
	"go.klb.dev/qlip/internal/rpc"
)

func TestRunDaemonServesAndSaves(t *testing.T) {
	dir, err := os.MkdirTemp("", "qlip")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	t.Setenv("QLIP_SOCKET", filepath.Join(dir, "q.sock"))
	historyFile := filepath.Join(dir, "history.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	root := newRootCmd()
	root.SetArgs([]string{"run", "--no-watch", "--log-level", "error",
		"--history-file", historyFile, "--image-dir", filepath.Join(dir, "images")})
	root.SetOut(&bytes.Buffer{})
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, ipc.IsRunning, 5*time.Second, 20*time.Millisecond)

	err = withClient(ctx, func(ctx context.Context, c *rpc.Client) error {
		id, err := c.Add(ctx, history.Text("persist me"))
		if err != nil {
			return err
		}
		_, err = c.ToggleFavorite(ctx, id)
		return err
	})
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}

	entries, err := persist.NewJSONFile(historyFile, "").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "persist me", entries[0].Content.Data)
	assert.True(t, entries[0].Favorite)
}

func TestRunDaemonKeepsUnreadableHistory(t *testing.T) {
	dir, err := os.MkdirTemp("", "qlip")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	t.Setenv("QLIP_SOCKET", filepath.Join(dir, "q.sock"))
	historyFile := filepath.Join(dir, "history.json")
	require.NoError(t, os.WriteFile(historyFile, []byte("not json"), 0o600))
	imageDir := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(imageDir, 0o700))
	image := filepath.Join(imageDir, "abc.png")
	require.NoError(t, os.WriteFile(image, []byte("\x89PNG"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	root := newRootCmd()
	root.SetArgs([]string{"run", "--no-watch", "--log-level", "error",
		"--history-file", historyFile, "--image-dir", imageDir})
	root.SetOut(&bytes.Buffer{})
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, ipc.IsRunning, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}

	aside, err := filepath.Glob(historyFile + ".unreadable-*")
	require.NoError(t, err)
	require.Len(t, aside, 1)
	raw, err := os.ReadFile(aside[0])
	require.NoError(t, err)
	assert.Equal(t, "not json", string(raw))
	assert.FileExists(t, image)
}

func TestClientCommandsNeedDaemon(t *testing.T) {
	dir, err := os.MkdirTemp("", "qlip")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	t.Setenv("QLIP_SOCKET", filepath.Join(dir, "none.sock"))

	root := newRootCmd()
	root.SetArgs([]string{"list"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.ErrorIs(t, root.Execute(), errNotRunning)
}
