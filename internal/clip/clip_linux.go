//go:build linux

package clip

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"golang.design/x/clipboard"
)

type linuxBackend struct {
	interval time.Duration
	watchCh  chan struct{}
	done     chan struct{}
	lastText []byte
	lastImg  []byte
}

// New returns the Linux clipboard backend, or a headless no-op backend if
// the display environment is unavailable. clipboard.Init is called here
// rather than in init() so that CLI sub-commands never touch the display.
func New(interval time.Duration) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewHeadless()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	b := &linuxBackend{
		interval: interval,
		watchCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		// Content present at startup is not a change.
		lastText: clipboard.Read(clipboard.FmtText),
		lastImg:  clipboard.Read(clipboard.FmtImage),
	}
	go b.poll()
	return b
}

func (b *linuxBackend) Name() string { return "Linux clipboard (poll)" }

func (b *linuxBackend) poll() {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text := clipboard.Read(clipboard.FmtText)
			img := clipboard.Read(clipboard.FmtImage)
			if bytes.Equal(text, b.lastText) && bytes.Equal(img, b.lastImg) {
				continue
			}
			b.lastText = text
			b.lastImg = img
			select {
			case b.watchCh <- struct{}{}:
			default:
			}
		}
	}
}

func (b *linuxBackend) Read() ([]Item, error) {
	var items []Item
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		items = append(items, Item{MIME: MIMEText, Data: text})
	}
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		items = append(items, Item{MIME: MIMEPNG, Data: img})
	}
	return items, nil
}

func (b *linuxBackend) Write(items []Item) error {
	for _, it := range items {
		switch it.MIME {
		case MIMEText:
			clipboard.Write(clipboard.FmtText, it.Data)
		case MIMEPNG:
			clipboard.Write(clipboard.FmtImage, it.Data)
		default:
			return fmt.Errorf("unsupported MIME type: %s", it.MIME)
		}
	}
	return nil
}

func (b *linuxBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *linuxBackend) Close()                 { close(b.done) }
