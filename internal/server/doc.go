// Package server exposes the song catalog over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Router-wide middleware must be added with [BasicRouter.Use] before routes are registered.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so unknown methods get a 405
// and paths may carry wildcards such as {id}.
//
// # Routes
//
//	GET  /health                 → database ping
//	GET  /songs?page=&limit=     → one catalog page, newest first
//	GET  /songs/search?q=        → title/artist search
//	GET  /songs/{id}             → one song
//	GET  /songs/{id}/lyrics.lrc  → LRC export
//	POST /songs                  → multipart publish (rate limited)
//	POST /lyrics/parse           → LRC text → JSON lyric track
//	GET  /assets/...             → files from the local store
//
// # Middleware
//
// [Logging] writes one structured line per request, [Recover] converts panics into 500 responses,
// and [RateLimiter] keeps a token bucket per client address.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [AssetsHandler] is one.
package server
