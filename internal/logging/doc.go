// Package logging provides structured logging utilities for meetbook.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Build the process logger once and hand it to components:
//
//	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
//	linker := scheduling.NewLinker(store, client, scheduling.WithLogger(logger))
//
// Attach standard attributes:
//
//	logger.Info("meeting link attached",
//	    logging.MeetingID(m.ID),
//	    logging.Method(string(result.Method)))
//
// # Security Considerations
//
//   - Requester emails are hashed (UserHash) so log lines can be correlated
//     without exposing PII
//   - OAuth tokens are never logged directly (SanitizeToken)
package logging
