// Package middleware provides the gin middleware of the HTTP API: CORS,
// per-client rate limiting and request logging.
package middleware
