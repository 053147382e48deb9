// Package repositories implements SQLite persistence for the import pipeline.
//
// Key Implementations:
//   - [PathFlagRepository] : processed flags keyed by folder path, with per-path serialised toggles
//   - [ReportRepository] : finished task summaries with soft deletes and sequence ordering
//
// Sequence numbers provide stable, human-readable ordering (e.g., report #42) independent of task ids and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
