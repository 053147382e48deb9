// Package tasks tracks long-running import jobs and resolves the date of every imported file.
//
// # Registry
//
// The [Registry] owns every live task. A request calls [Registry.Begin] with an [Action] and a task id
// (empty to start a new task from init or range) and receives a [Handle] holding the task's lock:
//
//  1. [Action.Target] maps each action to one stage: init → SELECT, range → IMPORT, analyze → ANALYZE,
//     fixfiles → FIX, postproc → POSTPROCESS, process/results → FINISHED, cancel → CANCELLED
//  2. Stages only move forward; a request for an earlier stage fails with shared.ErrInvalidTransition
//  3. [Handle.Advance] commits the move once the request succeeded, so failed requests leave the stage alone
//  4. [Handle.Release] unlocks, turning FINISHED or cancelled tasks into tombstones
//
// [Registry.Cancel] sets an atomic flag and never waits on a busy task. Requests already in flight run to
// completion; the task is retired as CANCELLED when they release it. [Registry.Sweep] evicts tasks and
// tombstones idle longer than the configured timeout, and [Registry.Run] calls it on a ticker.
//
// # Resolution
//
// Each file carries a [models.Disposition]. [Handle.ApplyPerFile] and [Handle.ApplyBulk] set them with
// last-write-wins semantics; bulk metadata kinds only touch files that carry that candidate.
// [Handle.ApplyBatch] validates a whole set of selections before applying any, and
// [Handle.CheckResolved] collects every unresolved file id. [Handle.Preview] resolves a copy,
// so callers can act on the outcome before [Handle.Commit] makes it stick.
//
// # Progress Reporting
//
// Long operations publish [ProgressUpdate] values. The latest one is kept per task for polling
// through [Registry.Progress] and optionally forwarded on a channel using select with default so
// reporting never blocks.
package tasks
