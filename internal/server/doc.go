// Package server provides HTTP routing, middleware, and the message and event endpoints
// that let a browser or script drive queue runs.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with per-method dispatch.
//
// # Sessions
//
// Every request carries an opaque session handle in the X-Session-ID header (or the session
// query parameter for clients such as EventSource that cannot set headers). [SessionMiddleware]
// generates one when absent. Runs started by a session report their events to that session only.
//
// # Endpoints
//
//	POST /api/messages  → one JSON request, one JSON response
//	GET  /api/events    → server-sent events for the session
//	GET  /api/ws        → websocket: requests in, responses and events out
//	GET  /api/releases  → one page of cached releases (q, sort, dir, page)
//	GET  /api/labels    → persisted queue and completed labels
//
// Store writes are broadcast to every session as STORAGE_CHANGED events once [API.WatchStore] is called.
package server
