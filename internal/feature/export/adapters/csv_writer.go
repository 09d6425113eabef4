// Package adapters はexportフィーチャーの出力先実装を提供します。
package adapters

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"stock_risk/internal/feature/export/usecase"
)

// CSVTableWriter は表を dir 配下のCSVファイルとして書き出します。
type CSVTableWriter struct {
	dir string
}

var _ usecase.TableWriter = (*CSVTableWriter)(nil)

// NewCSVTableWriter は dir を出力先とする CSVTableWriter を作成します。
func NewCSVTableWriter(dir string) *CSVTableWriter {
	return &CSVTableWriter{dir: dir}
}

// WriteTable は既存ファイルを上書きします。必要な親ディレクトリは作成します。
func (w *CSVTableWriter) WriteTable(name string, header []string, records [][]string) (string, error) {
	p := filepath.Join(w.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", p, err)
	}

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", p, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write header to %s: %w", p, err)
	}
	if err := cw.WriteAll(records); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write rows to %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", p, err)
	}
	return p, nil
}
