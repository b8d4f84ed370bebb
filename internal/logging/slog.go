package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// console receives records until a session log file is configured. It is
// stderr so command output on stdout stays clean.
var console io.Writer = os.Stderr

// ServiceName is the instrumentation scope of OTel log records.
const ServiceName = "routeplanner"

// exportFloor is the lowest level sent to OTel. Per-intent debug traces stay
// in the session log.
const exportFloor = slog.LevelInfo

// SlogManager owns the session logger: a text sink, an optional OTel sink
// and the edit status stamped on every record.
type SlogManager struct {
	logger  *slog.Logger
	handler slog.Handler

	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel accepts slog level names in any case, such as "debug" or
// "WARN". Anything else is info.
func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Setup (re)builds the logger. Text records go to file, or to the console
// when file is nil. A non-nil provider adds an OTel sink at info and above.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	lvl := parseLevel(level)
	m.logProvider = provider

	if file == nil {
		file = console
	}
	text := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if t, ok := a.Value.Any().(time.Time); ok && a.Key == slog.TimeKey {
				a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
			}
			return a
		},
	})

	sinks := fanout{{handler: text, level: lvl}}
	if provider != nil {
		sinks = append(sinks, sink{
			handler: otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)),
			level:   max(lvl, exportFloor),
		})
	}

	m.handler = sinks
	m.logger = slog.New(m.handler)
	m.logger.Info("Logging initialized", "level", lvl.String())
}

// SetStatusFunc stamps every later record with the edit status reported by
// fn. It must be called after Setup.
func (m *SlogManager) SetStatusFunc(fn StatusFunc) {
	if m.handler == nil || fn == nil {
		return
	}
	m.logger = slog.New(statusHandler{Handler: m.handler, status: fn})
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog records a message about an intent at the named level.
func (m *SlogManager) WriteLog(intent, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "intent", intent)
}
