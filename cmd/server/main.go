package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"polycare/m/internal/api"
	"polycare/m/internal/cache"
	"polycare/m/internal/config"
	"polycare/m/internal/database"
	"polycare/m/internal/ledger"
	"polycare/m/internal/logger"
	"polycare/m/internal/migrations"
	"polycare/m/internal/observability"
	"polycare/m/internal/reports"
	"polycare/m/internal/seed"
	"polycare/m/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so this one goes to a default.
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	// Amounts go over the wire as JSON numbers, as the web client expects.
	decimal.MarshalJSONWithoutQuotes = true

	if cfg.UsesDevSecret() {
		log.Warn("SECRET is not set, tokens are signed with the development key")
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	closers := []func() error{db.Close}
	log.Info("database connected", zap.String("driver", cfg.DBDriver))

	if err := migrations.Run(ctx, db); err != nil {
		return err
	}
	st := store.New(db)

	reportCache := cache.ReportCache(cache.Noop{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis unavailable, report cache disabled", zap.Error(err))
			_ = redisCache.Close()
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Info("report cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	metrics := observability.NewMetrics()
	stockLedger := ledger.New(st,
		ledger.WithMode(ledger.Mode(cfg.LedgerMode)),
		ledger.WithInvalidator(reportCache),
		ledger.WithRecorder(metrics),
		ledger.WithLogger(log.Named("ledger")),
	)
	reportService := reports.New(st,
		reports.WithCache(reportCache, cfg.ReportCacheTTL),
		reports.WithLocation(loc),
		reports.WithLogger(log.Named("reports")),
	)
	log.Info("stock ledger ready", zap.String("mode", string(stockLedger.Mode())))

	if err := seed.EnsureAdmin(ctx, st, log, cfg.SeedAdminUsername, cfg.SeedAdminPassword); err != nil {
		return err
	}
	if _, err := seed.LoadOpeningStockFile(ctx, st, stockLedger, log, cfg.StockSeedPath); err != nil {
		return err
	}

	handler := api.New(st, stockLedger, reportService, metrics, log.Named("http"), api.Config{
		Secret:         cfg.Secret,
		TokenTTL:       cfg.TokenTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		LoginRateLimit: cfg.LoginRateLimit,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Polycare API listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info("shutting down", zap.String("signal", s.String()))
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warn("close error", zap.Error(err))
		}
	}
	log.Info("server stopped")
	return nil
}
