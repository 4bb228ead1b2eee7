package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/localwise/directory/internal/config"
	"github.com/localwise/directory/internal/directory"
	"github.com/localwise/directory/internal/fetch"
	"github.com/localwise/directory/internal/logging"
	"github.com/localwise/directory/internal/pgstore"
	"github.com/localwise/directory/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded configuration from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, cleanup, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fallback, err := loadFallback(cfg.Source.FallbackFile)
	if err != nil {
		return err
	}

	fetcher := fetch.New(&fetch.Options{
		Timeout:   cfg.Source.FetchTimeout,
		UserAgent: cfg.Source.UserAgent,
	})

	store := directory.NewStore(directory.StoreConfig{
		SourceURL:     cfg.Source.URL,
		TTL:           cfg.Cache.TTL,
		RetryAttempts: cfg.Retry.Attempts,
		RetryDelay:    cfg.Retry.Delay,
		Fallback:      fallback,
	}, fetcher, snapshots)

	server := web.NewServer(cfg, store)

	if cfg.Refresh.Enabled {
		go store.StartAutoRefresh(ctx, cfg.Refresh.Interval, server.PrivilegedSessionActive)
	}

	log := logging.WithComponent("server")

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Server.Addr())
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// newSnapshotStore picks the persisted snapshot tier: PostgreSQL when a
// DATABASE_URL is configured, otherwise process memory. The returned cleanup
// closes the pool (a no-op for the memory tier).
func newSnapshotStore(ctx context.Context, cfg *config.Config) (directory.SnapshotStore, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("no database configured, snapshots are process-local")
		return directory.NewMemorySnapshotStore(), func() {}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, err
	}

	snapshots := pgstore.New(pool)
	if err := snapshots.Init(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	slog.Info("database snapshot store ready", "max_conns", cfg.Database.MaxConns)
	return snapshots, pool.Close, nil
}

// loadFallback parses the optional local CSV used when every remote and
// cached source is exhausted. A configured file that fails to parse is a
// startup error; a missing setting is not.
func loadFallback(path string) (directory.ProviderList, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	records, err := directory.Parse(string(data))
	if err != nil {
		return nil, err
	}

	slog.Info("loaded fallback dataset", "file", path, "providers", len(records))
	return records, nil
}
