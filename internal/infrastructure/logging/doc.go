// Package logging builds the service's structured logger on log/slog.
//
// Every entry carries service=graylogic-counter and the build version.
// Format is json (default) or text; output is stdout, stderr or discard.
//
//	log := logging.New(cfg.Logging, version)
//	registry.SetLogger(log.With("component", "counter"))
//
// Context user ids may be logged. Tokens and passwords must not be.
package logging
