// Package db はPostgreSQLへの接続とマイグレーションを提供します。
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	priceadapters "stock_risk/internal/feature/prices/adapters"
	symbolentity "stock_risk/internal/feature/symbollist/domain/entity"
	"stock_risk/internal/platform/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// retryInterval は接続失敗時の再試行間隔です。
const retryInterval = 3 * time.Second

// Opener はDSNからGORM接続を開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

func openPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// BuildDSN は設定から接続文字列を組み立てます。URL が設定されている場合はそれを優先します。
func BuildDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// ConnectWithRetry は timeout が経過するまで接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open はPostgreSQLへ接続し、設定に応じてマイグレーションを実行します。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := ConnectWithRetry(BuildDSN(cfg), cfg.ConnectTimeout, openPostgres)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	slog.Info("DB connection established", "host", cfg.Host, "name", cfg.Name)
	return db, nil
}

// Migrate は株価と銘柄マスタのテーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&priceadapters.PriceBarModel{},
		&symbolentity.Symbol{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Ping はDB接続の疎通を確認します。
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
