package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stock_risk/internal/app/di"
	exportadapters "stock_risk/internal/feature/export/adapters"
	exportusecase "stock_risk/internal/feature/export/usecase"
	priceusecase "stock_risk/internal/feature/prices/usecase"
	riskusecase "stock_risk/internal/feature/risk/usecase"
	symbollistadapters "stock_risk/internal/feature/symbollist/adapters"
	symbollistusecase "stock_risk/internal/feature/symbollist/usecase"
	"stock_risk/internal/platform/config"
	infradb "stock_risk/internal/platform/db"
	"stock_risk/internal/platform/logger"
)

// 価格データの取得元
const (
	sourceMarket = "market"
	sourceDB     = "db"
)

type options struct {
	configPath string
	sync       bool
	source     string
	out        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export rule-based risk metrics for every active symbol, grouped by sector",
		Long: `Runs the rule-based risk assessment for every active symbol in the directory
and writes one CSV table per GICS sector plus a combined all_sectors.csv.`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.source != sourceMarket && opts.source != sourceDB {
				return fmt.Errorf("--source must be %q or %q, got %q", sourceMarket, sourceDB, opts.source)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Configuration file path")
	cmd.Flags().BoolVar(&opts.sync, "sync", false, "Refresh the symbol directory before exporting")
	cmd.Flags().StringVar(&opts.source, "source", sourceMarket, "Price source: market (live download) or db (stored bars)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output directory (defaults to export.dir)")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger.New(cfg.Log)
	if opts.out == "" {
		opts.out = cfg.Export.Dir
	}

	db, err := infradb.Open(cfg.Database)
	if err != nil {
		return err
	}

	symbolUC := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db), di.NewDirectorySource(cfg.Directory))
	if opts.sync {
		n, err := symbolUC.SyncFromDirectory(ctx)
		if err != nil {
			return fmt.Errorf("sync symbol directory: %w", err)
		}
		slog.Info("symbol directory synced", "symbols", n)
	}

	var prices riskusecase.PriceHistoryProvider
	switch opts.source {
	case sourceDB:
		prices = priceusecase.NewHistoryUsecase(di.NewPriceRepository(db, nil))
	default:
		prices = di.NewPacedMarket(cfg.Market)
	}

	riskUC := di.NewRiskUsecase(cfg.Risk, prices, nil)
	uc := exportusecase.NewExportUsecase(symbolUC, riskUC, exportadapters.NewCSVTableWriter(opts.out), cfg.Risk.BenchmarkTicker)

	summary, err := uc.ExportBySector(ctx)
	if err != nil {
		return err
	}
	slog.Info("export complete",
		"out", opts.out,
		"source", opts.source,
		"sectors", summary.Sectors,
		"rows", summary.Rows,
		"failed", len(summary.Failed),
	)
	return nil
}
