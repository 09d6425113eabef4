// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"stock_risk/internal/feature/symbollist/domain"
	"stock_risk/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for symbol (stock ticker) data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	ReplaceActive(ctx context.Context, symbols []entity.Symbol) error
}

// DirectorySource fetches the current constituents of an external ticker/sector directory.
type DirectorySource interface {
	FetchConstituents(ctx context.Context) ([]entity.Symbol, error)
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo      SymbolRepository
	directory DirectorySource
}

// NewSymbolUsecase creates a new SymbolUsecase. directory may be nil when syncing is not needed.
func NewSymbolUsecase(r SymbolRepository, directory DirectorySource) *SymbolUsecase {
	return &SymbolUsecase{repo: r, directory: directory}
}

// ListActiveSymbols returns all active symbols ordered by sort key.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// ListActiveCodes returns the codes of all active symbols ordered by sort key.
func (u *SymbolUsecase) ListActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// SyncFromDirectory replaces the active symbol list with the directory's current constituents.
// Sort keys follow the directory order. An empty directory result leaves the stored list unchanged.
func (u *SymbolUsecase) SyncFromDirectory(ctx context.Context) (int, error) {
	if u.directory == nil {
		return 0, domain.ErrDirectoryUnavailable
	}
	symbols, err := u.directory.FetchConstituents(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch constituents: %w", err)
	}
	if len(symbols) == 0 {
		return 0, domain.ErrEmptyDirectory
	}

	seen := make(map[string]struct{}, len(symbols))
	rows := make([]entity.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if s.Code == "" {
			continue
		}
		if _, dup := seen[s.Code]; dup {
			continue
		}
		seen[s.Code] = struct{}{}
		s.SortKey = len(rows) + 1
		rows = append(rows, s)
	}
	if err := u.repo.ReplaceActive(ctx, rows); err != nil {
		return 0, fmt.Errorf("store constituents: %w", err)
	}
	slog.Info("symbol directory synced", "symbols", len(rows))
	return len(rows), nil
}
