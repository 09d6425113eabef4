// Package wikipedia scrapes the S&P 500 constituents table used as the
// ticker/sector directory.
package wikipedia

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	priceentity "stock_risk/internal/feature/prices/domain/entity"
	"stock_risk/internal/feature/symbollist/domain/entity"
	"stock_risk/internal/feature/symbollist/usecase"
)

const userAgent = "Mozilla/5.0 (compatible; stock_risk/1.0)"

// 構成銘柄テーブルの見出し
const (
	colSymbol      = "Symbol"
	colSecurity    = "Security"
	colSector      = "GICS Sector"
	colSubIndustry = "GICS Sub-Industry"
)

// ConstituentsSource fetches the constituents table from a Wikipedia page.
type ConstituentsSource struct {
	client *resty.Client
	url    string
}

var _ usecase.DirectorySource = (*ConstituentsSource)(nil)

// NewConstituentsSource creates a source reading pageURL with the given HTTP client.
func NewConstituentsSource(httpClient *http.Client, pageURL string) *ConstituentsSource {
	client := resty.NewWithClient(httpClient)
	client.SetHeader("User-Agent", userAgent)
	return &ConstituentsSource{client: client, url: pageURL}
}

// FetchConstituents はページを取得し、テーブルの並び順で銘柄一覧を返します。
func (s *ConstituentsSource) FetchConstituents(ctx context.Context) ([]entity.Symbol, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch constituents: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d when fetching constituents", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return ParseConstituents(doc)
}

// ParseConstituents は table#constituents から銘柄を抽出します。
// 列は見出しの名前で特定するため、列の並び替えには影響されません。
func ParseConstituents(doc *goquery.Document) ([]entity.Symbol, error) {
	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents table not found")
	}

	cols := map[string]int{}
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		cols[strings.TrimSpace(th.Text())] = i
	})
	for _, name := range []string{colSymbol, colSecurity, colSector} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("constituents table has no %q column", name)
		}
	}

	var out []entity.Symbol
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= cells.Length() {
				return ""
			}
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		code := priceentity.SanitizeTicker(cell(colSymbol))
		if code == "" {
			return
		}
		out = append(out, entity.Symbol{
			Code:        code,
			Name:        cell(colSecurity),
			Sector:      cell(colSector),
			SubIndustry: cell(colSubIndustry),
			IsActive:    true,
			SortKey:     len(out) + 1,
		})
	})
	return out, nil
}
