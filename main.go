// Roost is the feed subscription registry daemon.
//
// It keeps each account's subscribed feeds, their metadata, and their
// unread counts, refreshes the feeds on an interval, and serves the
// management API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-envconfig"
	_ "golang.org/x/crypto/x509roots/fallback"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/roost/internal/account"
	"github.com/jdholdren/roost/internal/api"
	"github.com/jdholdren/roost/internal/migrations"
	"github.com/jdholdren/roost/internal/refresh"
	"github.com/jdholdren/roost/internal/roost"
	"github.com/jdholdren/roost/internal/sqlite"
	"github.com/jdholdren/roost/logger"
)

type config struct {
	Port     int    `env:"PORT, default=4444"`
	Database string `env:"DATABASE, required"`

	CorsOrigin      string        `env:"CORS_ORIGIN, default=*"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL, default=15m"`
	FlushInterval   time.Duration `env:"FLUSH_INTERVAL, default=1m"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	// Determine which logger format to use
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if cfg.LoggerFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	l := slog.New(logger.NewContextHandler(handler))
	slog.SetDefault(l)

	// Start the application
	if err := run(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	slog.Info("running", "config", cfg)

	// Connect to the db
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000", cfg.Database))
	if err != nil {
		return fmt.Errorf("error opening database: %s", err)
	}
	defer dbx.Close()

	// Migrate, always
	if err := migrations.Run(dbx); err != nil {
		return fmt.Errorf("error migrating: %s", err)
	}

	hub := roost.NewHub()
	registry := account.NewRegistry(sqlite.New(dbx), hub)
	if err := registry.Open(ctx); err != nil {
		return fmt.Errorf("error opening registry: %s", err)
	}

	s := api.NewServer(api.ServerConfig{
		Port:       cfg.Port,
		CorsOrigin: cfg.CorsOrigin,
	}, registry, hub)
	refresher := refresh.New(registry, cfg.RefreshInterval)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Start the server
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error listening: %s", err)
		}

		return nil
	})
	g.Go(func() error {
		// Block from shutting down until the group is canceled
		<-gCtx.Done()

		downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(downCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}

		return nil
	})

	g.Go(func() error {
		// Start the refresher
		if err := refresher.Run(gCtx); err != nil {
			return fmt.Errorf("error running refresher: %s", err)
		}

		return nil
	})

	g.Go(func() error {
		// Periodically persist feed state, and once more on the way out
		ticker := time.NewTicker(cfg.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				if err := registry.Flush(flushCtx); err != nil {
					slog.Error("error flushing on shutdown", "error", err)
				}

				return nil
			case <-ticker.C:
				if err := registry.Flush(gCtx); err != nil {
					slog.Error("error flushing", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("error running: %s", err)
	}

	return nil
}
