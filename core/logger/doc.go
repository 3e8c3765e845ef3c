// Package logger provides the structured Zap logger shared by the HTTP server,
// the CLI commands and every preference backend.
//
// # Context Awareness
//
// WithRayID extracts the request ID placed in the Fiber context by the rayid
// middleware and attaches it to the log entry, so that every line logged while
// answering one request can be correlated.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Snapshot reloaded", zap.Int("users", n))
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Lookup failed", zap.Error(err))
package logger
