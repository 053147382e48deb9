// Package pipeline is the boundary of the import workflow.
//
// A [Pipeline] turns the stage-scoped requests of a client into calls on the task registry, the
// date-resolution engine and the path flag store:
//
//	select    -> list folders, record their paths, start or continue a task in SELECT
//	import    -> range: stage the source folder (IMPORT); analyze: scan and build the file list (ANALYZE)
//	fixfiles  -> apply per-file or bulk choices and return the file list (FIX)
//	postproc  -> run the post-processing script (POSTPROCESS)
//	finish    -> process: resolve everything and export (FINISHED); results: read the summary back
//	cancel    -> idempotent cancellation
//	toggle    -> flip the processed flag of a folder path
//
// Requests are validated before any state is touched, and every failure is one of the tagged
// errors of package tasks or a sentinel from package shared.
package pipeline
