// Package domain defines domain-level errors for the symbollist feature.
package domain

import "errors"

var (
	// ErrDirectoryUnavailable is returned when no external directory source is configured.
	ErrDirectoryUnavailable = errors.New("symbol directory is not configured")

	// ErrEmptyDirectory is returned when the directory source yields no constituents.
	// The stored list is left untouched in that case.
	ErrEmptyDirectory = errors.New("symbol directory returned no constituents")
)
