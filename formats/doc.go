// Package formats implements the format-detection and parsing pipeline
// for laboratory instrument exports.
//
// # Architecture
//
// The package is organized around three pieces:
//
// 1. Handler: the detect/parse contract, one implementation per
// instrument family (Dewesoft, Keysight, Hioki, Fluke, Yokogawa,
// Keithley, Tektronix, Rigol) plus a generic delimited-text fallback
//
// 2. Registry: an ordered, first-match-wins collection of handlers
//
// 3. Utilities: column-label unit splitting, time-axis coercion,
// numeric-row heuristics, and text-encoding recovery shared by the
// handlers
//
// # Usage
//
// Resolve and parse a file of unknown origin:
//
//	reg := formats.NewDefaultRegistry(nil)
//	h, ok := reg.Resolve("export.xlsx")
//	if !ok {
//	    // no handler claimed the file
//	}
//	table, meta, err := h.Parse("export.xlsx")
//
// # Detection
//
// Detect is fast and total: it inspects a bounded number of rows or
// bytes, never returns an error, and treats any internal failure as
// "not mine". Because signatures are heuristic, more than one handler
// may claim a file; the registry resolves ties by registration order,
// with the generic fallback always registered last.
//
// # Error handling
//
// Parse returns the most specific error kind: *ParseError when the
// data block cannot be located, *EncodingError when no supported text
// encoding decodes the file. Absent optional metadata (acquisition
// date, sample rate) is not an error.
package formats
