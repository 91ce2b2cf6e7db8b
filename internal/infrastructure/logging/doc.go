// Package logging provides structured logging for the Remote ID sensor.
//
// It wraps log/slog so every component logs with the same handler, level and
// default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stderr, stdout
//
// Stdout is normally reserved for the line-delimited detection stream, so
// logging defaults to stderr.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("scanner started", "source", cfg.Scanner.Source)
package logging
