package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ultradns/ultradns-push-notifier/internal/api"
	"github.com/ultradns/ultradns-push-notifier/internal/audit"
	"github.com/ultradns/ultradns-push-notifier/internal/config"
	otelpkg "github.com/ultradns/ultradns-push-notifier/internal/otel"
	"github.com/ultradns/ultradns-push-notifier/internal/state"
	"github.com/ultradns/ultradns-push-notifier/internal/telemetry"
	"github.com/ultradns/ultradns-push-notifier/internal/tui"
)

// Version is set via ldflags at build time: -ldflags "-X main.Version=..."
var Version = "v1.0-dev"

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage of %s:

  %s                          Start the admin console
  %s -server <url>            Use a backend other than the configured one
  %s doctor [-json]           Run diagnostic checks

FLAGS:
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
ENVIRONMENT VARIABLES:
  PUSHADMIN_HOME          State directory (default: ~/.pushadmin)
  PUSHADMIN_SERVER        Backend base URL (overrides config.yaml)
  PUSHADMIN_LOG_LEVEL     debug, info, warn, or error
`)
}

func main() {
	serverFlag := flag.String("server", "", "backend base URL (overrides config.yaml)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Usage = printUsage
	flag.Parse()

	if *versionFlag {
		fmt.Println("pushadmin", Version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "help":
			printUsage()
			return
		case "doctor":
			os.Exit(runDoctorCommand(ctx, args[1:]))
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
			printUsage()
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fatalStartup(nil, "E_CONFIG_LOAD", err)
	}
	if *serverFlag != "" {
		cfg.ServerURL = strings.TrimSuffix(*serverFlag, "/")
	}

	// Audit first so logger-init failures still leave a trail.
	if err := audit.Init(cfg.HomeDir); err != nil {
		fatalStartup(nil, "E_AUDIT_INIT", err)
	}
	defer func() { _ = audit.Close() }()

	// File-only logs: the TUI owns the terminal.
	logger, levelVar, closer, err := telemetry.NewLogger(cfg.HomeDir, cfg.LogLevel, true)
	if err != nil {
		fatalStartup(nil, "E_LOGGER_INIT", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)
	logger.Info("startup phase", "phase", "config_loaded", "server_url", cfg.ServerURL, "home", cfg.HomeDir)

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "pushadmin is an interactive console and needs a terminal")
		os.Exit(1)
	}

	// No-op when disabled in config.
	otelProvider, err := otelpkg.Init(ctx, cfg.Telemetry)
	if err != nil {
		fatalStartup(logger, "E_OTEL_INIT", err)
	}
	defer otelProvider.Shutdown(context.Background())

	metrics, err := otelpkg.NewMetrics(otelProvider.Meter)
	if err != nil {
		fatalStartup(logger, "E_OTEL_METRICS", err)
	}

	// Log level and poll interval follow config.yaml edits; a server URL
	// change needs a restart since sessions are bound to the backend.
	var pollInterval atomic.Int64
	pollInterval.Store(int64(cfg.PollInterval()))
	watcher := config.NewWatcher(cfg.HomeDir, logger)
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		go func() {
			for range watcher.Events() {
				next, err := config.LoadFrom(cfg.HomeDir)
				if err != nil {
					logger.Warn("config reload failed", "error", err)
					continue
				}
				levelVar.Set(telemetry.ParseLevel(next.LogLevel))
				pollInterval.Store(int64(next.PollInterval()))
				if next.ServerURL != cfg.ServerURL {
					logger.Warn("server_url changed on disk; restart to apply", "server_url", next.ServerURL)
				}
				logger.Info("config reloaded", "log_level", next.LogLevel, "poll_interval_s", next.PollIntervalSeconds)
			}
		}()
	}

	newSession := func() (*tui.Session, error) {
		client, err := api.New(cfg.ServerURL, api.Options{
			Timeout: cfg.RequestTimeout(),
			Logger:  logger,
			Tracer:  otelProvider.Tracer,
			Metrics: metrics,
		})
		if err != nil {
			return nil, err
		}
		return &tui.Session{
			Backend: client,
			Store:   state.NewStore(client, logger),
		}, nil
	}

	err = tui.Run(ctx, tui.Deps{
		NewSession:   newSession,
		PollInterval: func() time.Duration { return time.Duration(pollInterval.Load()) },
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		logger.Error("console exited with error", "error", err)
		fmt.Fprintln(os.Stderr, "pushadmin:", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func fatalStartup(logger *slog.Logger, reasonCode string, err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	if logger != nil {
		logger.Error("startup failure", "reason_code", reasonCode, "error", message)
	}
	// Logs are file-only, so always tell the terminal too.
	fmt.Fprintf(os.Stderr, "pushadmin: startup failure (%s): %s\n", reasonCode, message)
	os.Exit(1)
}
