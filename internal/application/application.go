// Package application holds the startup sequence shared by the commands:
// .env loading, configuration, logging, signal handling, the run id and the
// optional metrics backend.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/prof-ramos/planilhas-gov-br/internal/config"
	"github.com/prof-ramos/planilhas-gov-br/internal/core"
	"github.com/prof-ramos/planilhas-gov-br/internal/logging"
	"github.com/prof-ramos/planilhas-gov-br/internal/metrics"
	"github.com/prof-ramos/planilhas-gov-br/internal/metrics/datadog"
)

// App is a started command.
type App struct {
	Name   string
	Config *config.Config
	// Ctx is cancelled on SIGINT or SIGTERM and carries the run id.
	Ctx context.Context

	stop    context.CancelFunc
	closers []func() error
}

// Start prepares a command run. The caller must call Close.
func Start(name string) (*App, error) {
	// Overload overwrites existing env vars, matching the server behaviour.
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	} else {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = core.NewRunContext(ctx)

	app := &App{Name: name, Config: cfg, Ctx: ctx, stop: stop}
	app.setupMetrics()

	logging.FromContext(ctx).Debug("configuration loaded", "command", name, "config", cfg.String())
	return app, nil
}

func (a *App) setupMetrics() {
	log := logging.FromContext(a.Ctx)
	m := a.Config.Metrics

	switch strings.ToLower(m.Backend) {
	case "datadog":
		b, err := datadog.NewBackend(a.Ctx, datadog.Options{
			JobName:    m.Job,
			Tags:       m.Tags,
			FlushEvery: m.FlushEvery,
		})
		if err != nil {
			log.Warn("metrics: failed to init datadog backend, using nop", "error", err)
			return
		}
		metrics.SetBackend(b)
		// Close stops the flush loop and submits what is buffered.
		a.closers = append(a.closers, b.Close)
		log.Info("metrics enabled", "backend", "datadog", "job", m.Job, "tags", m.Tags)
	default:
		log.Debug("metrics disabled")
	}
}

// Close flushes metrics and releases the signal handler.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logging.FromContext(a.Ctx).Warn("metrics: close error", "error", err)
		}
	}
	a.stop()
}

// Fatal logs err and exits with status 1.
func Fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

// Usage prints a one-line usage message and exits with status 2.
func Usage(name, args string) {
	fmt.Fprintf(os.Stderr, "usage: %s %s\n", name, args)
	os.Exit(2)
}
