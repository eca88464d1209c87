package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// DefaultLookback is how far back the first sync reaches when no state exists.
const DefaultLookback = time.Hour

// SyncState is the durable checkpoint of the sync.
//
// LastSyncTimestamp never moves backwards. ProcessedIdentifiers only grows, and an
// identifier is added only after its print dispatch was accepted. SkippedIdentifiers
// holds documents that can never be printed (no source, unsupported scheme) so they
// are not re-evaluated on every run.
type SyncState struct {
	LastSyncTimestamp    time.Time `json:"lastSyncTimestamp"`
	ProcessedIdentifiers []string  `json:"processedIdentifiers"`
	SkippedIdentifiers   []string  `json:"skippedIdentifiers"`

	processed map[string]struct{}
	skipped   map[string]struct{}
}

// NewSyncState returns the state used on a first run: watermark one [DefaultLookback] before now.
func NewSyncState(now time.Time) *SyncState {
	return &SyncState{
		LastSyncTimestamp:    now.Add(-DefaultLookback).UTC(),
		ProcessedIdentifiers: []string{},
		SkippedIdentifiers:   []string{},
	}
}

// IsProcessed reports whether id has already been printed.
func (s *SyncState) IsProcessed(id string) bool {
	s.index()
	_, ok := s.processed[id]
	return ok
}

// IsSkipped reports whether id was permanently skipped.
func (s *SyncState) IsSkipped(id string) bool {
	s.index()
	_, ok := s.skipped[id]
	return ok
}

// Seen reports whether id needs no further work.
func (s *SyncState) Seen(id string) bool {
	return s.IsProcessed(id) || s.IsSkipped(id)
}

// MarkProcessed records a confirmed print. Returns false if id was already recorded.
func (s *SyncState) MarkProcessed(id string) bool {
	if s.IsProcessed(id) {
		return false
	}
	s.processed[id] = struct{}{}
	s.ProcessedIdentifiers = append(s.ProcessedIdentifiers, id)
	return true
}

// MarkSkipped records a permanent skip. Returns false if id was already recorded.
func (s *SyncState) MarkSkipped(id string) bool {
	if s.IsSkipped(id) {
		return false
	}
	s.skipped[id] = struct{}{}
	s.SkippedIdentifiers = append(s.SkippedIdentifiers, id)
	return true
}

// Advance moves the watermark to t unless that would move it backwards.
// Returns true if the watermark changed.
func (s *SyncState) Advance(t time.Time) bool {
	if !t.After(s.LastSyncTimestamp) {
		return false
	}
	s.LastSyncTimestamp = t.UTC()
	return true
}

// Clone returns a deep copy.
func (s *SyncState) Clone() *SyncState {
	return &SyncState{
		LastSyncTimestamp:    s.LastSyncTimestamp,
		ProcessedIdentifiers: slices.Clone(s.ProcessedIdentifiers),
		SkippedIdentifiers:   slices.Clone(s.SkippedIdentifiers),
	}
}

func (s *SyncState) index() {
	if s.processed == nil {
		s.processed = make(map[string]struct{}, len(s.ProcessedIdentifiers))
		for _, id := range s.ProcessedIdentifiers {
			s.processed[id] = struct{}{}
		}
	}
	if s.skipped == nil {
		s.skipped = make(map[string]struct{}, len(s.SkippedIdentifiers))
		for _, id := range s.SkippedIdentifiers {
			s.skipped[id] = struct{}{}
		}
	}
}

// legacySyncState is the older db.json layout.
type legacySyncState struct {
	LastChecked       *time.Time `json:"lastChecked"`
	ProcessedArticles []string   `json:"processedArticles"`
}

// UnmarshalJSON reads both the current layout and the legacy {lastChecked, processedArticles} one.
func (s *SyncState) UnmarshalJSON(data []byte) error {
	type plain SyncState
	var current plain
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("failed to decode sync state: %w", err)
	}

	var legacy legacySyncState
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("failed to decode sync state: %w", err)
	}

	*s = SyncState(current)
	s.processed, s.skipped = nil, nil

	if s.LastSyncTimestamp.IsZero() && legacy.LastChecked != nil {
		s.LastSyncTimestamp = legacy.LastChecked.UTC()
	}
	for _, id := range legacy.ProcessedArticles {
		s.MarkProcessed(id)
	}
	if s.ProcessedIdentifiers == nil {
		s.ProcessedIdentifiers = []string{}
	}
	if s.SkippedIdentifiers == nil {
		s.SkippedIdentifiers = []string{}
	}
	return nil
}
