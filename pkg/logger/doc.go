// Package logger provides the structured logging interface used across xhscrawl.
//
// It wraps zerolog with a small interface so crawl components can take a
// Logger and tests can swap in a TestLogger that records messages:
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("stream", "user_notes").Info("Walk started")
//	log.WithError(err).Warn("Reply walk stopped early")
//
// Console output goes to stderr with colored levels so that crawl results can
// be piped from stdout. When LoggingConfig.File is set, JSON lines are
// appended to that file as well.
//
// Helpers such as LogPage and LogWalkStop keep the field names of crawl
// events consistent between the walker, the comment crawler and the client.
package logger
