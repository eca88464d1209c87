// Package repositories implements persistence for sync state and print history.
//
// Key Implementations:
//   - [StateStore] : The JSON sync state file, rewritten atomically on every save
//   - [PrintJobRepository] : SQLite print history with status and identifier lookups; also the pipeline's job recorder
//
// Sequence numbers provide stable, human-readable ordering (e.g., job #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
