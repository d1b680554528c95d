//go:build !linux

package clip

import (
	"log/slog"
	"time"
)

// New returns a no-op backend; system clipboard capture is only implemented
// for Linux desktops.
func New(_ time.Duration) Backend {
	slog.Warn("clipboard capture not supported on this platform, running headless")
	return NewHeadless()
}
