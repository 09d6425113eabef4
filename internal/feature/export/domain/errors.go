// Package domain defines domain-level errors for the export feature.
package domain

import "errors"

// ErrNoSymbols is returned when the directory has no active symbols to export.
var ErrNoSymbols = errors.New("no active symbols to export")
