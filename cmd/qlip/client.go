package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.klb.dev/qlip/internal/ipc"
	"go.klb.dev/qlip/internal/rpc"
)

const callTimeout = 5 * time.Second

var errNotRunning = errors.New(`qlip daemon is not running (start it with "qlip run")`)

// withClient dials the daemon over IPC and calls fn with a bounded context.
func withClient(parent context.Context, fn func(context.Context, *rpc.Client) error) error {
	if !ipc.IsRunning() {
		return errNotRunning
	}
	c, err := rpc.Dial()
	if err != nil {
		return err
	}
	defer c.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, callTimeout)
	defer cancel()
	return fn(ctx, c)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}
