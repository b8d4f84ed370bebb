package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// IntentLogger writes dispatcher traces as zerolog JSON. Errors, durations,
// strings and ints keep their JSON type; other values are marshalled.
type IntentLogger struct {
	log zerolog.Logger
}

// NewIntentLogger wraps log for use as a dispatcher.Logger.
func NewIntentLogger(log zerolog.Logger) IntentLogger {
	return IntentLogger{log: log}
}

// Debug implements dispatcher.Logger.
func (l IntentLogger) Debug(msg string, keysAndValues ...any) {
	write(l.log.Debug(), msg, keysAndValues)
}

// Info implements dispatcher.Logger.
func (l IntentLogger) Info(msg string, keysAndValues ...any) {
	write(l.log.Info(), msg, keysAndValues)
}

// Error implements dispatcher.Logger.
func (l IntentLogger) Error(msg string, keysAndValues ...any) {
	write(l.log.Error(), msg, keysAndValues)
}

// write adds key/value pairs to e. Non-string keys and a trailing key
// without a value are skipped.
func write(e *zerolog.Event, msg string, kv []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		case string:
			e = e.Str(key, v)
		case int:
			e = e.Int(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
