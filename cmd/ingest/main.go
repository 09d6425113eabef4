package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"stock_risk/internal/app/di"
	"stock_risk/internal/feature/prices/domain/entity"
	symbollistadapters "stock_risk/internal/feature/symbollist/adapters"
	symbollistusecase "stock_risk/internal/feature/symbollist/usecase"
	"stock_risk/internal/platform/config"
	infradb "stock_risk/internal/platform/db"
	"stock_risk/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "", "path to an optional config file")
	sync := flag.Bool("sync", false, "refresh the symbol directory before ingesting")
	timeout := flag.Duration("timeout", 2*time.Hour, "overall deadline for the run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	db, err := infradb.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	symbolUC := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db), di.NewDirectorySource(cfg.Directory))
	if *sync {
		n, err := symbolUC.SyncFromDirectory(ctx)
		if err != nil {
			slog.Error("failed to sync symbol directory", "error", err)
			os.Exit(1)
		}
		slog.Info("symbol directory synced", "symbols", n)
	}

	symbols, err := symbolUC.ListActiveCodes(ctx)
	if err != nil {
		slog.Error("failed to load symbols", "error", err)
		os.Exit(1)
	}
	// ベータ計算用にベンチマークも取り込む
	benchmark := entity.SanitizeTicker(cfg.Risk.BenchmarkTicker)
	if !slices.Contains(symbols, benchmark) {
		symbols = append([]string{benchmark}, symbols...)
	}

	// バッチジョブはキャッシュを経由せず直接保存する
	uc := di.NewIngestUsecase(di.NewMarket(cfg.Market), di.NewPriceRepository(db, nil), cfg.Market, nil)
	results, err := uc.IngestAll(ctx, symbols)
	if err != nil {
		slog.Error("ingest aborted", "error", err, "completed", len(results))
		os.Exit(1)
	}

	var stored, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		stored += r.Stored
	}
	slog.Info("ingest ok", "symbols", len(results), "failed", failed, "bars", stored)
}
