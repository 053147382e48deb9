// Package services implements the collaborators the import pipeline delegates filesystem and process work to.
//
// # Interfaces
//
// The pipeline only sees small interfaces, so tests and alternative backends can replace them:
//   - [Folders] : list source folders and stage one into the import folder
//   - [Scanner] : walk the import folder and classify media and skipped files
//   - [Processor] : carry out dispositions and move survivors into the export folder
//   - [Runner] : run the post-processing script
//
// # Filesystem Implementation
//
// [FolderService] implements the first three. Media files are recognised with doublestar globs from the
// [media] config section. Staging and stat calls run with bounded concurrency through an errgroup; the
// order of discovery is preserved in scan results. Processing never aborts on a single file: failures are
// collected into the summary's error list.
//
// # Scripts
//
// [ScriptService] runs the configured command with the target folder as its last argument, under the
// configured timeout. Output is streamed to the logger and captured for the summary.
package services
