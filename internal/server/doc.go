// Package server runs the short-lived local HTTP server that receives the Spotify OAuth callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// [BasicRouter] uses [http.ServeMux] internally with method filtering, and [Logging] records each request.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback. It validates the state parameter,
// exchanges the code through an [Exchanger] and delivers exactly one [OAuthResult].
// Later callbacks are rejected.
//
// # Callback Server
//
// [CallbackServer] binds the listener up front, so a busy port fails before the browser is opened,
// then serves until a result arrives or the context ends and shuts itself down.
package server
