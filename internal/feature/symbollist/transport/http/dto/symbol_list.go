// Package dto defines data transfer objects for the symbollist HTTP API.
package dto

// SymbolItem represents a symbol in the API response.
// It contains only the public-facing fields needed by clients.
type SymbolItem struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	SubIndustry string `json:"sub_industry"`
}

// SyncResponse reports how many constituents were stored by a directory sync.
type SyncResponse struct {
	Synced int `json:"synced"`
}
