// Package adapters はpricesフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"time"

	"stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/prices/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type priceBarGorm struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*priceBarGorm)(nil)

// NewPriceRepository は指定されたDB接続で株価リポジトリを生成します。
func NewPriceRepository(db *gorm.DB) *priceBarGorm {
	return &priceBarGorm{db: db}
}

type PriceBarModel struct {
	ID     uint      `gorm:"primaryKey"`
	Symbol string    `gorm:"size:32;not null;uniqueIndex:stock_sym_date,priority:1"`
	Date   time.Time `gorm:"not null;uniqueIndex:stock_sym_date,priority:2"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (PriceBarModel) TableName() string {
	return "stocks"
}

func toModel(e entity.PriceBar) PriceBarModel {
	return PriceBarModel{
		Symbol: e.Symbol,
		Date:   e.Date,
		Open:   e.Open,
		High:   e.High,
		Low:    e.Low,
		Close:  e.Close,
		Volume: e.Volume,
	}
}

func toEntity(m PriceBarModel) entity.PriceBar {
	return entity.PriceBar{
		Symbol: m.Symbol,
		Date:   m.Date,
		Open:   m.Open,
		High:   m.High,
		Low:    m.Low,
		Close:  m.Close,
		Volume: m.Volume,
	}
}

func (r *priceBarGorm) UpsertBatch(ctx context.Context, bars []entity.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	ms := make([]PriceBarModel, 0, len(bars))
	for _, e := range bars {
		ms = append(ms, toModel(e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(&ms).Error
}

func (r *priceBarGorm) Find(ctx context.Context, symbol string, limit int) ([]entity.PriceBar, error) {
	var rows []PriceBarModel
	q := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.PriceBar, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// DeleteAll はstocksテーブルの全行を削除します。
func (r *priceBarGorm) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&PriceBarModel{})
	return res.RowsAffected, res.Error
}
