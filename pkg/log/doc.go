// Package log provides structured protocol capture for consist message traffic.
//
// This package defines the Logger interface and Event types for capturing
// every message a car publishes or receives, together with coupling, line and
// arbitration state changes and scoped failures such as payload decode errors.
// It is separate from operational logging (slog): protocol capture provides a
// complete machine-readable trace for debugging diffusion across a consist.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For analysis: write to a binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/tmp/consist.clog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Message: a publish (OUT) or a dispatch (IN); a dispatch that matched
//     no subscription is recorded with zero subscribers
//   - State: coupling changes, line value changes, permission changes,
//     arbitration results
//   - Error: decode failures, transport failures, routing problems
//
// # File Format
//
// Log files use CBOR encoding with the .clog extension. The consist-log CLI
// provides viewing and statistics.
package log
