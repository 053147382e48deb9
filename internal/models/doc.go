// Package models defines the domain entities and persistence interfaces of the photox import pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline state: value types owned by the task registry and copied out as snapshots
//   - [Stage] : position of a task in SELECT → IMPORT → ANALYZE → FIX → POSTPROCESS → FINISHED | CANCELLED
//   - [SourceKind] : where a candidate date came from, or the ignore/delete choices
//   - [Disposition] : the tagged fate of one file (unresolved, ignore, delete, assign)
//   - [FileEntry] : one imported file with its candidate dates and disposition
//   - [Task] : a snapshot of one import job
//
// 2. Results and persistent entities
//   - [Summary] : the outcome of processing a task
//   - [Report] : a persisted Summary implementing [Model]
//   - [FolderInfo] : one row of a folder listing with its processed flag
//
// Persistent entities implement the Model interface; the Repository[T] interface defines standard CRUD operations.
package models
