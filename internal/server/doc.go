// Package server provides HTTP routing, middleware, the login callback
// handler, and the companion web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Login Callback Handler
//
// [CallbackHandler] receives the provider redirect during login. For the
// implicit flow it first serves a forwarder page that folds the URL fragment
// into the query string, because fragments never reach a server; the reloaded
// request, like any code-flow redirect, is parsed and delivered through a
// channel. It only processes one callback per login attempt.
//
// When the user runs an auth command, a temporary HTTP server starts on the
// configured callback address, handles the redirect, and shuts down after
// delivering the result.
//
// # Companion Service
//
// [APIHandler] implements the deployed web service: the confidential
// SoundCloud token exchange (the client secret lives only here), client
// configuration for starting logins, the deployment version marker, and a
// single-page fallthrough for unmatched GETs.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
