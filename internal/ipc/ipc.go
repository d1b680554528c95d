// Package ipc locates and opens the local socket on which the qlip daemon
// serves its history to CLI tools and other UI clients.
//
// The same socket carries gRPC and plain HTTP; see internal/server.
package ipc

import (
	"context"
	"net"
	"os"
	"time"
)

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux / macOS: $XDG_RUNTIME_DIR/qlip.sock, else $TMPDIR/qlip.sock
//   - Windows:       \\.\pipe\qlip
//
// $QLIP_SOCKET overrides both.
func SocketPath() string {
	if s := os.Getenv("QLIP_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on the IPC
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := DialContext(ctx)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on the IPC socket.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// DialContext connects to the IPC socket.
func DialContext(ctx context.Context) (net.Conn, error) {
	return dialIPC(ctx, SocketPath())
}
