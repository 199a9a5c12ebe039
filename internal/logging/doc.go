// Package logging provides structured slog logging for geoprefix with
// size-based file rotation under ~/.geoprefix/logs/.
//
// Commands log to stderr at the configured level. With --debug, JSON logs
// are also written to a rotating server.log that `geoprefix logs` can tail.
package logging
