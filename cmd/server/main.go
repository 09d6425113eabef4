package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"

	"stock_risk/internal/app/di"
	"stock_risk/internal/app/router"
	pricehandler "stock_risk/internal/feature/prices/transport/handler"
	priceusecase "stock_risk/internal/feature/prices/usecase"
	riskhandler "stock_risk/internal/feature/risk/transport/handler"
	symbollistadapters "stock_risk/internal/feature/symbollist/adapters"
	symbollisthandler "stock_risk/internal/feature/symbollist/transport/handler"
	symbollistusecase "stock_risk/internal/feature/symbollist/usecase"
	"stock_risk/internal/platform/config"
	infradb "stock_risk/internal/platform/db"
	"stock_risk/internal/platform/http/handler"
	"stock_risk/internal/platform/logger"
	"stock_risk/internal/platform/metrics"
	infraredis "stock_risk/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to an optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.New(cfg.Log)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.Open(cfg.Database)
	if err != nil {
		return err
	}

	// Redis（無効または接続失敗時はキャッシュなしで動作）
	var rdb *redisv9.Client
	if cfg.Redis.Enabled {
		if rdb, err = infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running without cache.")
			rdb = nil
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	recorder := metrics.NewRecorder()

	// Repository
	priceRepo := di.NewPriceRepository(db, rdb)
	symbolRepo := symbollistadapters.NewSymbolRepository(db)

	// Usecase
	historyUC := priceusecase.NewHistoryUsecase(priceRepo)
	ingestUC := di.NewIngestUsecase(di.NewMarket(cfg.Market), priceRepo, cfg.Market, recorder)
	riskUC := di.NewRiskUsecase(cfg.Risk, historyUC, recorder)
	symbolUC := symbollistusecase.NewSymbolUsecase(symbolRepo, di.NewDirectorySource(cfg.Directory))

	// ルータ生成
	r := router.NewRouter(router.Handlers{
		History: pricehandler.NewHistoryHandler(historyUC),
		Risk:    riskhandler.NewRiskHandler(riskUC, ingestUC).WithBenchmark(cfg.Risk.BenchmarkTicker),
		Symbol:  symbollisthandler.NewSymbolHandler(symbolUC),
		Ready: handler.PingFunc(func(ctx context.Context) error {
			return infradb.Ping(ctx, db)
		}),
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
