// Package logging builds the slog loggers used by the CLI and the kiosk server.
//
// Two formats are supported: "console" writes one compact line per record and
// colours the level when the output is a terminal; "json" emits one JSON object
// per record for log shippers. Components take a *slog.Logger and never build
// their own.
package logging
