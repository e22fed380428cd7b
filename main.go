package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"SafeStruct/internal/auth"
	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/calc/zones"
	"SafeStruct/internal/config"
	"SafeStruct/internal/observability"
	"SafeStruct/internal/repo"
	"SafeStruct/internal/server"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func loadZones(path string) (*zones.Table, error) {
	if path == "" {
		return zones.Default()
	}
	return zones.LoadFile(path)
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	table, err := loadZones(cfg.ZonesFile)
	if err != nil {
		return fmt.Errorf("zone table: %w", err)
	}
	logger.Info("zone table loaded", zap.Int("rows", table.Len()), zap.String("file", cfg.ZonesFile))

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	evaluator := assess.NewEvaluator(table,
		assess.WithClock(clock),
		assess.WithMetrics(metrics),
		assess.WithLogger(logger),
	)

	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	deps := server.Deps{
		Evaluator:     evaluator,
		Logger:        logger,
		Metrics:       metrics,
		Clock:         clock,
		Limiter:       limiter,
		CORSOrigin:    cfg.CORSOrigin,
		MaxBatchItems: cfg.MaxBatchItems,
	}

	if cfg.PersistenceEnabled() {
		db, err := openStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		store := repo.NewPostgres(db)
		deps.Store = store
		deps.Ready = store
		deps.Auth = &auth.Authenv{
			JWTKey:       []byte(cfg.TokenKey),
			Repo:         store,
			Logger:       logger,
			Clock:        clock,
			SecureCookie: cfg.TLSEnabled(),
		}
		logger.Info("accounts enabled")
	} else {
		logger.Info("accounts disabled, DATABASE_URL not set")
	}

	srv := server.New(cfg.HTTPAddr, server.NewRouter(deps), logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := limiter.Prune(10 * time.Minute); n > 0 {
					logger.Debug("pruned rate limiter clients", zap.Int("count", n))
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.TLSCertFile, cfg.TLSKeyFile)
	}()

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	wg.Wait()
	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, dsn string) (*sql.DB, error) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := repo.Open(openCtx, dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(openCtx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
