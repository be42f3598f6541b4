// Package log provides a logging abstraction for keyframer components.
//
// Application code logs through the Logger interface with structured Field
// values. A zerolog adapter is used by the CLI and a no-op logger by
// library callers that do not pass one:
//
//	logger, err := log.NewConsoleLogger(os.Stderr, "info")
//
//	logger := log.NewNoopLogger()
package log
