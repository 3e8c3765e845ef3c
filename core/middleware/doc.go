// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation on the X-API-Key header.
//   - rayid: a request ID for every incoming request, stored in the context
//     and echoed in the response headers for tracing.
package middleware
