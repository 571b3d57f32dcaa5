// Package logctx is the structured logging surface used throughout the
// server. It offers the same package-level Debug/Info/Warn/Error/Fatal
// calls the teacher's hand-rolled logger exposed, but backs them with
// zerolog so boot, connection, and replication events carry real
// fields instead of formatted strings.
package logctx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var std = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}).
	With().Timestamp().Logger()

// SetLevel sets the global minimum log level by name (debug, info,
// warn, error); anything unrecognized falls back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	std = std.Level(lvl)
}

// SetOutput redirects log output, e.g. to a file or to io.Discard in
// tests.
func SetOutput(w io.Writer) {
	std = std.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000", NoColor: true})
}

// Debug logs at debug level with structured key/value fields.
func Debug(msg string, fields ...interface{}) {
	event(std.Debug(), msg, fields)
}

// Info logs at info level with structured key/value fields.
func Info(msg string, fields ...interface{}) {
	event(std.Info(), msg, fields)
}

// Warn logs at warn level with structured key/value fields.
func Warn(msg string, fields ...interface{}) {
	event(std.Warn(), msg, fields)
}

// Error logs at error level with structured key/value fields.
func Error(msg string, fields ...interface{}) {
	event(std.Error(), msg, fields)
}

// Fatal logs at error level and then terminates the process with a
// non-zero exit code, for unrecoverable boot or handshake failures.
func Fatal(msg string, fields ...interface{}) {
	event(std.Error(), msg, fields)
	os.Exit(1)
}

// event applies msg/key/value... pairs (fields must come in string-key,
// any-value pairs) to a zerolog event and sends it.
func event(e *zerolog.Event, msg string, fields []interface{}) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	e.Msg(msg)
}
