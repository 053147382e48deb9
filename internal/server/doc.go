// Package server provides HTTP routing, middleware and the pipeline handler of the photox service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Middleware
//
//   - [Logging] writes one structured log line per request
//   - [RateLimit] applies a shared token bucket and answers 429 when it is empty
//   - [Recover] turns panics into 500 responses
//
// # Pipeline Handler
//
// [PipelineHandler] exposes the import pipeline:
//
//	POST /selectfolder      list a folder and start or continue a task
//	POST /importfolder      range (stage) or analyze
//	POST /fixfiles          per-file or bulk date choices
//	POST /postproc          run the post-processing script
//	POST /finish            process or results
//	POST /cancel            cancel a task
//	POST /toggle_processed  flip a folder's processed flag
//	GET  /progress          latest progress of a task
//
// Requests are form-encoded or JSON, responses are JSON. Pipeline errors map to status codes:
// unknown task, path or file is 404; invalid range, date or input is 400; unresolved files and
// invalid stage transitions are 409, the former listing every file id.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
