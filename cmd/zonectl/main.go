package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/zonekit/deliveryzones/internal/config"
	"github.com/zonekit/deliveryzones/internal/logging"
	intOtel "github.com/zonekit/deliveryzones/internal/otel"
)

const AppName = "zonectl"

var (
	// Logger is the process logger; records go to the session log file.
	Logger *slog.Logger

	// SlogManager owns Logger
	SlogManager *logging.SlogManager

	// DBLogger is handed to the database layer
	DBLogger zerolog.Logger

	// OTelProvider is nil when OTel is disabled
	OTelProvider *intOtel.Provider

	LogFile io.WriteCloser

	SessionStartTime = time.Now()
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [-config dir] <command> [args]

Commands:
  render                       print the rendered zones as GeoJSON
  zones                        list zones
  center <lat> <lng> [address] move the service center and recalculate zones
  probe <lat> <lng>            classify a point
`, AppName)
	flag.PrintDefaults()
}

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	os.Exit(run(*configDir, args))
}

func run(configDir string, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	setupLogging(ctx, configDir)
	defer shutdown()

	a, err := newApp(ctx)
	if err != nil {
		Logger.Error("Failed to start", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer a.close()

	switch strings.ToLower(args[0]) {
	case "render":
		err = a.render()
	case "zones":
		err = a.listZones(os.Stdout)
	case "center":
		err = a.moveCenter(ctx, args[1:])
	case "probe":
		err = a.probe(ctx, args[1:])
	default:
		usage()
		return 2
	}
	if err != nil {
		Logger.Error("Command failed", "command", args[0], "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// setupLogging starts on stderr, loads the config, then moves logging to
// the session log file with optional OTel export.
func setupLogging(ctx context.Context, configDir string) {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(os.Stderr, "warn", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		if config.IsNotFound(err) {
			Logger.Warn("No config file, using defaults", "dir", configDir)
		} else {
			Logger.Warn("Failed to load config, using defaults!", "error", err)
		}
	}

	level := config.GetString("logLevel")
	var out io.Writer = os.Stderr
	f, err := logging.OpenLogFile(config.GetString("logsDir"), AppName, SessionStartTime)
	if err != nil {
		Logger.Warn("Failed to open log file, logging to stderr", "error", err)
	} else {
		LogFile = f
		out = f
	}

	var otelLogProvider *sdklog.LoggerProvider
	OTelProvider, err = intOtel.New(ctx, intOtel.FromConfig(config.GetOTelConfig(), out))
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
	} else {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	SlogManager.Setup(out, level, otelLogProvider)
	Logger = SlogManager.Logger()

	zl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		zl = zerolog.InfoLevel
	}
	DBLogger = zerolog.New(out).Level(zl).With().Timestamp().Str("component", "database").Logger()
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "log flush failed:", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "otel shutdown failed:", err)
		}
	}
	if LogFile != nil {
		LogFile.Close()
	}
}
