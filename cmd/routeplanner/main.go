package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/trailmark/routeplanner/internal/config"
	"github.com/trailmark/routeplanner/internal/logging"
	intOtel "github.com/trailmark/routeplanner/internal/otel"
	"github.com/trailmark/routeplanner/internal/store"
	"go.opentelemetry.io/otel/attribute"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// build defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "routeplanner"
)

var (
	// ConfigDir is where routeplanner.cfg.json and .env are looked up.
	ConfigDir string = "."

	// LogFilePath is the rotating session log file.
	LogFilePath string

	// LogWriter receives file logs; zerolog consumers share it.
	LogWriter io.Writer = os.Stderr

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()

	// activeStore is reported in every log record once a command creates it.
	activeStore atomic.Pointer[store.Store]
)

// setup loads config and wires logging and telemetry. The returned function
// flushes and closes everything setup opened.
func setup() (func(), error) {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(ConfigDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	}

	LogFilePath = logging.LogFilePath(viper.GetString("logsDir"), AppName, SessionStartTime)
	logFile := logging.NewRotatingFile(LogFilePath, logging.DefaultRotation)
	LogWriter = logFile

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		rc := config.GetRoutingConfig()
		p, err := intOtel.New(context.Background(), intOtel.Config{
			ServiceName: otelCfg.ServiceName,
			Version:     CurrentVersion,
			Routing: []attribute.KeyValue{
				attribute.String("routing.provider", rc.Provider),
				attribute.String("routing.profile", rc.Profile),
			},
			File:         logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
			BatchTimeout: otelCfg.BatchTimeout,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			OTelProvider = p
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(logFile, config.GetString("logLevel"), otelLogProvider)
	SlogManager.SetStatusFunc(editStatus)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentVersion)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := SlogManager.Flush(ctx); err != nil {
			Logger.Warn("Failed to flush logs", "error", err)
		}
		if OTelProvider != nil {
			if err := OTelProvider.Shutdown(ctx); err != nil {
				Logger.Warn("Failed to shut down OTel provider", "error", err)
			}
		}
		_ = logFile.Close()
	}, nil
}

// editStatus reports the active store's state for log records. It runs
// inside store calls, so it only reads the lock-free status.
func editStatus() (logging.EditStatus, bool) {
	st := activeStore.Load()
	if st == nil {
		return logging.EditStatus{}, false
	}
	status := st.Status()
	return logging.EditStatus{State: status.State.String(), RouteID: status.RouteID}, true
}

// zeroLogger returns a zerolog logger writing JSON to the session log.
func zeroLogger(component string) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.GetString("logLevel"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(LogWriter).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [args]

Commands:
  convert <in> <out.json>                 rewrite any route file as a segmented document
  export <in> <out> [json|geojson|kml]    export routes to another format
  replay <in> <script.jsonl> <out.json>   apply an edit intent script and save
  info <in>                               list routes with segment counts and lengths
  version                                 print version information
`, AppName)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if dir := os.Getenv("ROUTEPLANNER_CONFIG_DIR"); dir != "" {
		ConfigDir = dir
	}

	cleanup, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = run(context.Background(), args)
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
