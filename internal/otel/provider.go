// Package otel wires the OpenTelemetry log pipeline used by the slog bridge
// and hands out meters for the dispatcher and ring-cache instruments.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/zonekit/deliveryzones/internal/config"
)

// ErrNoExporter is returned when OTel is enabled without any sink.
var ErrNoExporter = errors.New("otel enabled but no log writer or endpoint configured")

// Config holds OTel configuration
type Config struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	LogWriter    io.Writer // stdoutlog sink, usually the session log file
	Endpoint     string    // OTLP/HTTP endpoint, optional
	Insecure     bool
}

// FromConfig builds a Config from the otel config section.
func FromConfig(c config.OTelConfig, w io.Writer) Config {
	return Config{
		Enabled:      c.Enabled,
		ServiceName:  c.ServiceName,
		BatchTimeout: c.BatchTimeout,
		LogWriter:    w,
		Endpoint:     c.Endpoint,
		Insecure:     c.Insecure,
	}
}

// Provider manages the OpenTelemetry log provider.
type Provider struct {
	logProvider *sdklog.LoggerProvider
	config      Config
}

// New creates a new OTel provider. A disabled config yields a provider whose
// LoggerProvider is nil.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}
	if !cfg.Enabled {
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	batch := func(e sdklog.Exporter) sdklog.LoggerProviderOption {
		return sdklog.WithProcessor(sdklog.NewBatchProcessor(e, sdklog.WithExportTimeout(cfg.BatchTimeout)))
	}
	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}

	if cfg.LogWriter != nil {
		fileExporter, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter))
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		opts = append(opts, batch(fileExporter))
	}

	if cfg.Endpoint != "" {
		otlpOpts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			otlpOpts = append(otlpOpts, otlploghttp.WithInsecure())
		}
		otlpExporter, err := otlploghttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		opts = append(opts, batch(otlpExporter))
	}

	if len(opts) == 1 {
		return nil, ErrNoExporter
	}

	p.logProvider = sdklog.NewLoggerProvider(opts...)
	return p, nil
}

// LoggerProvider returns the log provider for the otelslog bridge, or nil
// when OTel is disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns a meter from the global meter provider.
func (p *Provider) Meter(name string) metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}

// Flush forces a flush of all pending logs.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush failed: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the log provider. Call on exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}

// Enabled returns whether OTel is enabled
func (p *Provider) Enabled() bool {
	return p.config.Enabled
}
