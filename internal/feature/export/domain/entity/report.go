// Package entity defines the models written by the sector export.
package entity

// Row is one successfully assessed ticker in an exported table.
type Row struct {
	Ticker      string
	Volatility  float64
	VaR95       float64
	MaxDrawdown float64
	Beta        float64
	RiskLevel   string
	LatestClose float64
	Sector      string
	Company     string
	SubIndustry string
}

// Summary reports what an export run produced.
type Summary struct {
	Files   []string // paths written, sector tables first and the combined table last
	Sectors int
	Rows    int
	Failed  []string // tickers skipped because their assessment failed
}
