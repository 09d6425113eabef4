package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_risk/internal/feature/export/domain"
	"stock_risk/internal/feature/export/domain/entity"
	"stock_risk/internal/feature/export/usecase"
	riskentity "stock_risk/internal/feature/risk/domain/entity"
	symbolentity "stock_risk/internal/feature/symbollist/domain/entity"
)

type mockSymbolLister struct {
	symbols []symbolentity.Symbol
	err     error
}

func (m *mockSymbolLister) ListActiveSymbols(ctx context.Context) ([]symbolentity.Symbol, error) {
	return m.symbols, m.err
}

// mockAssessor は銘柄ごとに固定の結果を返します。failing に含まれる銘柄はエラーになります。
type mockAssessor struct {
	failing     map[string]bool
	gotStrategy string
	gotItems    []riskentity.BatchItem
	batchErr    error
}

func (m *mockAssessor) AssessBatch(ctx context.Context, items []riskentity.BatchItem, strategy string) ([]riskentity.Outcome, error) {
	m.gotStrategy = strategy
	m.gotItems = items
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([]riskentity.Outcome, len(items))
	for i, it := range items {
		out[i].Item = it
		if m.failing[it.Ticker] {
			out[i].Err = errors.New("insufficient history")
			continue
		}
		out[i].Assessment = &riskentity.Assessment{
			Strategy: riskentity.StrategyRule,
			Ticker:   it.Ticker,
			Metrics: &riskentity.RiskMetricsBundle{
				Ticker:      it.Ticker,
				Volatility:  0.254321,
				VaR95:       -0.021234,
				MaxDrawdown: -0.15,
				Beta:        1.1,
				RiskLevel:   "Moderate",
				LatestClose: 123.456,
			},
		}
	}
	return out, nil
}

type writtenTable struct {
	name    string
	header  []string
	records [][]string
}

type recordingWriter struct {
	tables []writtenTable
	err    error
}

func (w *recordingWriter) WriteTable(name string, header []string, records [][]string) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.tables = append(w.tables, writtenTable{name: name, header: header, records: records})
	return "out/" + name, nil
}

func directory() []symbolentity.Symbol {
	return []symbolentity.Symbol{
		{Code: "XOM", Name: "ExxonMobil", Sector: "Energy", SubIndustry: "Integrated Oil & Gas"},
		{Code: "AAPL", Name: "Apple Inc.", Sector: "Information Technology", SubIndustry: "Technology Hardware"},
		{Code: "CVX", Name: "Chevron", Sector: "Energy", SubIndustry: "Integrated Oil & Gas"},
		{Code: "BAD", Name: "Broken Corp", Sector: "Utilities"},
		{Code: "ODD", Name: "Odd Co", Sector: "Goods/Services"},
	}
}

func TestExportBySector(t *testing.T) {
	assessor := &mockAssessor{failing: map[string]bool{"BAD": true}}
	writer := &recordingWriter{}
	uc := usecase.NewExportUsecase(&mockSymbolLister{symbols: directory()}, assessor, writer, "SPY")

	summary, err := uc.ExportBySector(context.Background())
	require.NoError(t, err)

	assert.Equal(t, riskentity.StrategyRule, assessor.gotStrategy)
	require.Len(t, assessor.gotItems, 5)
	assert.Equal(t, "Energy", assessor.gotItems[0].Sector)
	assert.Equal(t, "ExxonMobil", assessor.gotItems[0].Company)

	assert.Equal(t, 3, summary.Sectors)
	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, []string{"BAD"}, summary.Failed)
	assert.Equal(t, []string{
		"out/industries/Energy.csv",
		"out/industries/Goods_Services.csv",
		"out/industries/Information Technology.csv",
		"out/all_sectors.csv",
	}, summary.Files)

	require.Len(t, writer.tables, 4)
	energy := writer.tables[0]
	assert.Equal(t, "Beta vs SPY", energy.header[4])
	require.Len(t, energy.records, 2)
	assert.Equal(t, []string{
		"XOM", "0.2543", "-0.0212", "-0.1500", "1.1000", "Moderate", "123.46",
		"Energy", "ExxonMobil", "Integrated Oil & Gas",
	}, energy.records[0])
	assert.Equal(t, "CVX", energy.records[1][0])

	combined := writer.tables[3]
	assert.Equal(t, "all_sectors.csv", combined.name)
	require.Len(t, combined.records, 4)
	assert.Equal(t, "XOM", combined.records[0][0])
	assert.Equal(t, "AAPL", combined.records[1][0])
}

func TestExportBySector_Errors(t *testing.T) {
	listErr := errors.New("db down")
	writeErr := errors.New("disk full")

	tests := []struct {
		name    string
		lister  *mockSymbolLister
		writer  *recordingWriter
		wantErr error
	}{
		{"no symbols", &mockSymbolLister{}, &recordingWriter{}, domain.ErrNoSymbols},
		{"list failure", &mockSymbolLister{err: listErr}, &recordingWriter{}, listErr},
		{"write failure", &mockSymbolLister{symbols: directory()}, &recordingWriter{err: writeErr}, writeErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := usecase.NewExportUsecase(tt.lister, &mockAssessor{}, tt.writer, "SPY")
			_, err := uc.ExportBySector(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExportBySector_NothingSucceeded(t *testing.T) {
	failing := map[string]bool{}
	for _, s := range directory() {
		failing[s.Code] = true
	}
	w := &recordingWriter{}
	uc := usecase.NewExportUsecase(&mockSymbolLister{symbols: directory()}, &mockAssessor{failing: failing}, w, "SPY")

	summary, err := uc.ExportBySector(context.Background())
	require.NoError(t, err)

	assert.Empty(t, w.tables, "no sector or combined table is written")
	assert.Empty(t, summary.Files)
	assert.Zero(t, summary.Rows)
	assert.Len(t, summary.Failed, len(directory()))
}

func TestGroupBySector(t *testing.T) {
	groups := usecase.GroupBySector([]entity.Row{
		{Ticker: "A", Sector: "Energy"},
		{Ticker: "B", Sector: ""},
		{Ticker: "C", Sector: "Energy"},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups["Energy"][0].Ticker)
	assert.Equal(t, "C", groups["Energy"][1].Ticker)
	assert.Equal(t, "B", groups[usecase.UnclassifiedSector][0].Ticker)
}

func TestSectorFileName(t *testing.T) {
	assert.Equal(t, "Energy.csv", usecase.SectorFileName("Energy"))
	assert.Equal(t, "Goods_Services.csv", usecase.SectorFileName("Goods/Services"))
}
