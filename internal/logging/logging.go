// Package logging configures the global slog logger for qlip binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a string to a Format, returning FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel converts a string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Config describes a logger.
type Config struct {
	Format Format
	Level  slog.Level
	Output io.Writer // nil means stderr
}

// Resolve builds a Config from raw flag values. An empty level means debug
// when running interactively and info otherwise.
func Resolve(interactive bool, format, level string) Config {
	cfg := Config{Format: ParseFormat(format), Level: ParseLevel(level)}
	if strings.TrimSpace(level) == "" {
		cfg.Level = slog.LevelInfo
		if interactive {
			cfg.Level = slog.LevelDebug
		}
	}
	return cfg
}

// New returns a logger for cfg: tinter on a terminal (or when text is forced),
// JSON otherwise.
func New(cfg Config) *slog.Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	if cfg.Format == FormatText || (cfg.Format == FormatAuto && IsTTY(w)) {
		return slog.New(tinter.NewHandler(w, &tinter.Options{
			Level:      cfg.Level,
			TimeFormat: "15:04:05.000",
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level}))
}

// Setup installs the logger for cfg as the slog default. Call once after
// flag and config parsing.
func Setup(cfg Config) {
	slog.SetDefault(New(cfg))
}
