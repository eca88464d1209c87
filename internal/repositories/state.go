package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/shared"
)

// StateStore persists [models.SyncState] as a single JSON document.
//
// Saves replace the file atomically (temp file, fsync, rename) so a crash leaves either
// the previous or the new state on disk, never a torn write.
type StateStore struct {
	path string
	now  func() time.Time
}

// NewStateStore creates a StateStore backed by the file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path, now: time.Now}
}

// Path returns the backing file path.
func (s *StateStore) Path() string { return s.path }

// Load reads the state file.
//
// A missing or empty file yields a fresh state with the default watermark.
// Unparseable content is reported as [shared.ErrCorruptState] rather than silently reset,
// since resetting would forget which articles were already printed.
func (s *StateStore) Load(ctx context.Context) (*models.SyncState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(data) == 0) {
		return models.NewSyncState(s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state models.SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrCorruptState, s.path, err)
	}
	if state.LastSyncTimestamp.IsZero() {
		state.LastSyncTimestamp = s.now().Add(-models.DefaultLookback).UTC()
	}
	return &state, nil
}

// Save writes state and syncs it to disk before returning.
func (s *StateStore) Save(ctx context.Context, state *models.SyncState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

// Reset moves the watermark to since, optionally forgetting processed and skipped identifiers.
//
// Unlike a sync run this may move the watermark backwards; it is an explicit operator action.
func (s *StateStore) Reset(ctx context.Context, since time.Time, forget bool) (*models.SyncState, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if forget {
		state = models.NewSyncState(s.now())
	}
	state.LastSyncTimestamp = since.UTC()

	if err := s.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
