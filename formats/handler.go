package formats

import (
	"labdata/pkg/contracts/domain"
)

// Handler is the capability implemented by every format variant.
// Handlers are stateless apart from their configuration and may be
// invoked concurrently and repeatedly with different files.
type Handler interface {
	// Name returns the short registry name of the format, e.g. "keysight".
	Name() string

	// Description returns a human-readable description of the format.
	Description() string

	// Detect reports whether the file looks like this handler's format.
	// It inspects a bounded number of rows or bytes, has no side
	// effects, and never fails: unreadable or malformed input yields
	// false.
	Detect(path string) bool

	// Parse fully reads the file: locates the data block past any
	// variable-length metadata header, extracts format-specific
	// metadata, splits column labels into name and unit, resolves the
	// time column, and assembles the normalized table. Missing optional
	// metadata is not an error; an unlocatable data block is a
	// *ParseError.
	Parse(path string) (*domain.Table, *domain.Metadata, error)
}
