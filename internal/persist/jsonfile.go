package persist

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.klb.dev/qlip/internal/crypto"
	"go.klb.dev/qlip/internal/history"
)

// sealedPrefix marks a passphrase-sealed snapshot. The rest of the file is
// base64(salt+nonce+ciphertext) followed by a newline.
const sealedPrefix = "qlip1:"

// JSONFile stores snapshots as a JSON array in a single file. Writes go to a
// temporary file in the same directory which is then renamed over the target.
type JSONFile struct {
	path       string
	passphrase string
}

// NewJSONFile returns an adapter for path. A non-empty passphrase seals
// snapshots on save and is required to load sealed ones.
func NewJSONFile(path, passphrase string) *JSONFile {
	return &JSONFile{path: path, passphrase: passphrase}
}

func (j *JSONFile) Name() string { return "json:" + j.path }

func (j *JSONFile) Load(_ context.Context) ([]history.Entry, error) {
	raw, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, j.path, err)
	}

	if rest, ok := bytes.CutPrefix(raw, []byte(sealedPrefix)); ok {
		if j.passphrase == "" {
			return nil, fmt.Errorf("%w: %s is encrypted and no passphrase is set", ErrPersistence, j.path)
		}
		sealed, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(rest)))
		if err != nil {
			return nil, fmt.Errorf("%w: base64 decode: %w", ErrPersistence, err)
		}
		if raw, err = crypto.Open(sealed, j.passphrase); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	} else if j.passphrase != "" {
		slog.Warn("history file is not encrypted; it will be sealed on next save", "path", j.path)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrPersistence, j.path, err)
	}
	return fromRecords(recs)
}

func (j *JSONFile) Save(_ context.Context, entries []history.Entry) error {
	raw, err := json.MarshalIndent(toRecords(entries), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}
	if j.passphrase != "" {
		sealed, err := crypto.Seal(raw, j.passphrase)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		raw = []byte(sealedPrefix + base64.StdEncoding.EncodeToString(sealed) + "\n")
	}
	if err := writeAtomic(j.path, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (j *JSONFile) Close() error { return nil }

func (j *JSONFile) SetAside() (string, error) {
	dst := asidePath(j.path, time.Now())
	if err := os.Rename(j.path, dst); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return dst, nil
}

// writeAtomic replaces path with data so readers see either the old or the
// new snapshot, never a partial one.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
