// Package server holds the HTTP server configuration.
//
// The serve command owns startup and shutdown; this package only defines the
// listen port, the API key checked by the auth middleware, and the path the
// Prometheus registry is exposed on.
package server
