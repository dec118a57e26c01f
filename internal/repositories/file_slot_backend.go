package repositories

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type fileSlotBackend struct {
	dir string
}

// NewFileSlotBackend keeps one JSON file per session slot under dir, so
// results survive a restart without a database.
func NewFileSlotBackend(dir string) (SlotBackend, error) {
	b := &fileSlotBackend{dir: dir}
	if err := b.ensureDir(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *fileSlotBackend) ensureDir() error {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("failed to create slot directory: %w", err)
	}
	return nil
}

// path hex-encodes the session ID so it can never escape dir.
func (b *fileSlotBackend) path(sessionID, key string) string {
	name := fmt.Sprintf("%s_%s.json", hex.EncodeToString([]byte(key)), hex.EncodeToString([]byte(sessionID)))
	return filepath.Join(b.dir, name)
}

func (b *fileSlotBackend) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	payload, err := os.ReadFile(b.path(sessionID, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read slot: %w", err)
	}
	return payload, true, nil
}

// Put writes to a temporary file first so readers never see a partial slot.
func (b *fileSlotBackend) Put(_ context.Context, sessionID, key string, payload []byte) error {
	target := b.path(sessionID, key)

	tmp, err := os.CreateTemp(b.dir, ".slot-*")
	if err != nil {
		return fmt.Errorf("failed to create slot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

func (b *fileSlotBackend) Delete(_ context.Context, sessionID, key string) error {
	if err := os.Remove(b.path(sessionID, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}
