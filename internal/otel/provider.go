// Package otel builds the OpenTelemetry log pipeline of a CLI session.
package otel

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultServiceName is reported when Config.ServiceName is empty.
const DefaultServiceName = "routeplanner"

// ErrNoExporter is returned when neither a file nor an endpoint is set.
var ErrNoExporter = errors.New("otel: no log file or OTLP endpoint configured")

// Config describes where session log records are exported.
type Config struct {
	ServiceName string
	Version     string
	// Routing describes the routing backend of the session, for example
	// provider and profile. It is attached to the resource.
	Routing []attribute.KeyValue

	// File receives pretty-printed JSON records.
	File io.Writer
	// Endpoint is an OTLP/HTTP collector address such as "localhost:4318".
	Endpoint string
	Insecure bool
	// BatchTimeout bounds each export. Zero keeps the SDK default.
	BatchTimeout time.Duration
}

// Provider owns the session's log pipeline.
type Provider struct {
	logs *sdklog.LoggerProvider
}

// New builds a batching exporter per configured destination.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	exporters, err := cfg.exporters(ctx)
	if err != nil {
		return nil, err
	}
	if len(exporters) == 0 {
		return nil, ErrNoExporter
	}

	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(cmp.Or(cfg.ServiceName, DefaultServiceName)),
		semconv.ServiceVersion(cfg.Version),
	}, cfg.Routing...)
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var batchOpts []sdklog.BatchProcessorOption
	if cfg.BatchTimeout > 0 {
		batchOpts = append(batchOpts, sdklog.WithExportTimeout(cfg.BatchTimeout))
	}
	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, exp := range exporters {
		opts = append(opts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exp, batchOpts...)))
	}
	return &Provider{logs: sdklog.NewLoggerProvider(opts...)}, nil
}

func (c Config) exporters(ctx context.Context) ([]sdklog.Exporter, error) {
	var out []sdklog.Exporter
	if c.File != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(c.File), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		out = append(out, exp)
	}
	if c.Endpoint != "" {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(c.Endpoint)}
		if c.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		out = append(out, exp)
	}
	return out, nil
}

// LoggerProvider returns the provider for the otelslog bridge.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logs
}

// Flush exports pending records.
func (p *Provider) Flush(ctx context.Context) error {
	if err := p.logs.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush failed: %w", err)
	}
	return nil
}

// Shutdown flushes and stops every exporter. The provider is unusable
// afterwards.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.logs.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}
