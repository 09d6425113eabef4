// Package usecase はセクター別リスク一覧のエクスポート処理を実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"stock_risk/internal/feature/export/domain"
	"stock_risk/internal/feature/export/domain/entity"
	riskentity "stock_risk/internal/feature/risk/domain/entity"
	symbolentity "stock_risk/internal/feature/symbollist/domain/entity"
)

const (
	// IndustriesDir はセクター別テーブルの出力先ディレクトリです。
	IndustriesDir = "industries"
	// CombinedFile は全セクターをまとめたテーブルのファイル名です。
	CombinedFile = "all_sectors.csv"
	// UnclassifiedSector はセクター未設定の銘柄に使うグループ名です。
	UnclassifiedSector = "Unclassified"
)

// SymbolLister は出力対象の銘柄一覧を提供します。
type SymbolLister interface {
	ListActiveSymbols(ctx context.Context) ([]symbolentity.Symbol, error)
}

// BatchAssessor は複数銘柄のリスク評価を行います。
type BatchAssessor interface {
	AssessBatch(ctx context.Context, items []riskentity.BatchItem, strategy string) ([]riskentity.Outcome, error)
}

// TableWriter はヘッダー付きの表を name（出力先からの相対パス）に書き出し、書き出したパスを返します。
type TableWriter interface {
	WriteTable(name string, header []string, records [][]string) (string, error)
}

// ExportUsecase はルールベースの評価結果をセクターごとの表に書き出すユースケースです。
type ExportUsecase struct {
	symbols   SymbolLister
	assessor  BatchAssessor
	writer    TableWriter
	benchmark string
}

// NewExportUsecase は新しい ExportUsecase を作成します。benchmark はベータ列の見出しに使います。
func NewExportUsecase(symbols SymbolLister, assessor BatchAssessor, writer TableWriter, benchmark string) *ExportUsecase {
	return &ExportUsecase{symbols: symbols, assessor: assessor, writer: writer, benchmark: benchmark}
}

// Header は出力する表の列見出しを返します。
func (u *ExportUsecase) Header() []string {
	return []string{
		"Ticker", "Volatility", "VaR (95%)", "Max Drawdown",
		"Beta vs " + u.benchmark, "Risk Level", "Latest Close",
		"Sector", "Company", "Sub-Industry",
	}
}

// ExportBySector は有効な全銘柄をルールベースで評価し、成功した銘柄をセクターごとに書き出します。
// 失敗した銘柄はログに記録してスキップし、Summary.Failed に列挙します。
func (u *ExportUsecase) ExportBySector(ctx context.Context) (entity.Summary, error) {
	symbols, err := u.symbols.ListActiveSymbols(ctx)
	if err != nil {
		return entity.Summary{}, fmt.Errorf("list symbols: %w", err)
	}
	if len(symbols) == 0 {
		return entity.Summary{}, domain.ErrNoSymbols
	}

	items := make([]riskentity.BatchItem, len(symbols))
	for i, s := range symbols {
		items[i] = riskentity.BatchItem{Ticker: s.Code, Sector: s.Sector, Company: s.Name, SubIndustry: s.SubIndustry}
	}
	outcomes, err := u.assessor.AssessBatch(ctx, items, riskentity.StrategyRule)
	if err != nil {
		return entity.Summary{}, fmt.Errorf("assess batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return entity.Summary{}, err
	}

	var summary entity.Summary
	rows := make([]entity.Row, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.OK() || o.Assessment.Metrics == nil {
			slog.Warn("skipping ticker in export", "ticker", o.Item.Ticker, "error", o.Err)
			summary.Failed = append(summary.Failed, o.Item.Ticker)
			continue
		}
		rows = append(rows, toRow(o))
	}

	groups := GroupBySector(rows)
	sectors := make([]string, 0, len(groups))
	for s := range groups {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	for _, sector := range sectors {
		p, err := u.writer.WriteTable(path.Join(IndustriesDir, SectorFileName(sector)), u.Header(), records(groups[sector]))
		if err != nil {
			return summary, fmt.Errorf("write sector %s: %w", sector, err)
		}
		summary.Files = append(summary.Files, p)
		slog.Info("sector table written", "sector", sector, "rows", len(groups[sector]), "path", p)
	}

	// 成功した銘柄が無い場合は全セクター表を書かない
	if len(rows) == 0 {
		slog.Warn("no ticker assessed successfully, skipping combined table", "failed", len(summary.Failed))
		return summary, nil
	}
	p, err := u.writer.WriteTable(CombinedFile, u.Header(), records(rows))
	if err != nil {
		return summary, fmt.Errorf("write combined table: %w", err)
	}
	summary.Files = append(summary.Files, p)
	summary.Sectors = len(sectors)
	summary.Rows = len(rows)
	return summary, nil
}

// GroupBySector は行をセクター名でまとめます。各グループ内の順序は入力順を保ちます。
func GroupBySector(rows []entity.Row) map[string][]entity.Row {
	out := make(map[string][]entity.Row)
	for _, r := range rows {
		sector := r.Sector
		if strings.TrimSpace(sector) == "" {
			sector = UnclassifiedSector
		}
		out[sector] = append(out[sector], r)
	}
	return out
}

// SectorFileName はセクター名からファイル名を作ります（"/" は "_" に置換）。
func SectorFileName(sector string) string {
	return strings.ReplaceAll(sector, "/", "_") + ".csv"
}

func toRow(o riskentity.Outcome) entity.Row {
	m := o.Assessment.Metrics
	return entity.Row{
		Ticker:      m.Ticker,
		Volatility:  m.Volatility,
		VaR95:       m.VaR95,
		MaxDrawdown: m.MaxDrawdown,
		Beta:        m.Beta,
		RiskLevel:   m.RiskLevel,
		LatestClose: m.LatestClose,
		Sector:      o.Item.Sector,
		Company:     o.Item.Company,
		SubIndustry: o.Item.SubIndustry,
	}
}

func records(rows []entity.Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Ticker,
			fixed(r.Volatility, 4),
			fixed(r.VaR95, 4),
			fixed(r.MaxDrawdown, 4),
			fixed(r.Beta, 4),
			r.RiskLevel,
			fixed(r.LatestClose, 2),
			r.Sector,
			r.Company,
			r.SubIndustry,
		}
	}
	return out
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
