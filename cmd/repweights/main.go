package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/screwyprof/repweights/cmd/repweights/config"
	"github.com/screwyprof/repweights/pkg/logger"
	"github.com/screwyprof/repweights/pkg/noderpc"
	"github.com/screwyprof/repweights/pkg/pgxdb"
	"github.com/screwyprof/repweights/weights"
)

func main() {
	// Load configuration
	cfg, cfgErr := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	if cfgErr != nil {
		log.Error("Failed to load configuration", slog.Any("error", cfgErr))
		os.Exit(1)
	}

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg, log).ExecuteContext(ctx); err != nil {
		log.ErrorContext(ctx, "Bootstrap weights generation failed",
			slog.String("failure", failureKind(err)),
			slog.Any("error", err),
		)
		stop()
		os.Exit(1)
	}
}

// failureKind names the class of err for the final log record
func failureKind(err error) string {
	switch {
	case errors.Is(err, noderpc.ErrTransport):
		return "transport"
	case errors.Is(err, noderpc.ErrParse):
		return "parse"
	case errors.Is(err, weights.ErrFilesystem):
		return "filesystem"
	case errors.Is(err, weights.ErrInvalidConfig), errors.Is(err, weights.ErrInvalidNetwork):
		return "config"
	case errors.Is(err, weights.ErrInvalidAccount):
		return "account"
	case errors.Is(err, weights.ErrArchiveFailed),
		errors.Is(err, ErrArchiveNotConfigured),
		errors.Is(err, pgxdb.ErrDatabaseConnection),
		errors.Is(err, pgxdb.ErrInvalidConnectionString),
		errors.Is(err, pgxdb.ErrConnectionPoolCreation):
		return "archive"
	default:
		return "usage"
	}
}
