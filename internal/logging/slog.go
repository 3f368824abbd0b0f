package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName identifies log records exported through OTel.
const ServiceName = "deliveryzones"

// swapped in tests
var (
	osStdout = os.Stdout
	osPipe   = os.Pipe
)

// SlogManager owns the process logger: text output to a file or the
// console, plus an optional OTel bridge.
type SlogManager struct {
	logger  *slog.Logger
	handler slog.Handler

	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger. Text records go to file when it is non-nil and
// to stdout otherwise, so a CLI writing GeoJSON to stdout stays clean when
// a log file is configured. A nil provider disables OTel export.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	m.logProvider = provider

	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var out io.Writer = osStdout
	if file != nil {
		out = file
	}

	handlers := []slog.Handler{slog.NewTextHandler(out, handlerOpts)}
	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)))
	}

	m.handler = NewMultiHandler(handlers...)
	m.logger = slog.New(m.handler)
	m.logger.Info("Logging initialized", "level", level, "otel", provider != nil)
}

// Logger returns the configured slog.Logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// WithContext returns a logger whose records also carry the attributes
// produced by provider at the time each record is handled.
func (m *SlogManager) WithContext(provider ContextProvider) *slog.Logger {
	inner := m.handler
	if inner == nil {
		inner = slog.Default().Handler()
	}
	return slog.New(NewContextHandler(inner, provider))
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
