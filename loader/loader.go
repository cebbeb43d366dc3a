// Package loader orchestrates the parsing pipeline: it picks a format
// handler for a file (by detection or explicit override), invokes it,
// and exposes read-only views of the resulting table and metadata.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"labdata/formats"
	"labdata/internal/config"
	"labdata/pkg/contracts/domain"
)

// Loader owns the table and metadata parsed from exactly one file.
// Both are immutable after construction; a Loader without data is not
// a valid state, so Open either fully succeeds or fails.
type Loader struct {
	path   string
	format string
	table  *domain.Table
	meta   *domain.Metadata
}

type options struct {
	format   string
	registry *formats.Registry
	cfg      *config.Config
}

// Option configures Open.
type Option func(*options)

// WithFormat forces a specific format instead of auto-detection. The
// choice is not re-validated against detection: a wrong name still
// attempts to parse and surfaces that handler's ParseError.
func WithFormat(name string) Option {
	return func(o *options) { o.format = name }
}

// WithRegistry injects the handler registry to resolve against. The
// default is a fresh default registry.
func WithRegistry(r *formats.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithConfig overrides the pipeline tunables used when no registry is
// injected.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// Open parses the file at path and constructs its Loader.
func Open(path string, opts ...Option) (*Loader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// The file must exist before any detection is attempted.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not found: %s: %w", path, err)
	}

	reg := o.registry
	if reg == nil {
		reg = formats.NewDefaultRegistry(o.cfg)
	}

	var handler formats.Handler
	if o.format != "" {
		h, err := reg.Get(o.format)
		if err != nil {
			return nil, err
		}
		handler = h
	} else {
		h, ok := reg.Resolve(path)
		if !ok {
			return nil, &formats.DetectionError{Path: path, Attempted: reg.Names()}
		}
		handler = h
	}

	table, meta, err := handler.Parse(path)
	if err != nil {
		return nil, err
	}

	slog.Info("loaded data file",
		slog.String("path", path),
		slog.String("format", handler.Name()),
		slog.String("equipment", meta.Equipment),
		slog.Int("channels", len(meta.Channels)),
		slog.Int("rows", table.Len()))

	return &Loader{
		path:   path,
		format: handler.Name(),
		table:  table,
		meta:   meta,
	}, nil
}

// Path returns the file path the loader was constructed with.
func (l *Loader) Path() string { return l.path }

// Format returns the name of the handler that parsed the file.
func (l *Loader) Format() string { return l.format }

// Table returns the normalized table.
func (l *Loader) Table() *domain.Table { return l.table }

// Metadata returns the metadata record assembled during parsing.
func (l *Loader) Metadata() *domain.Metadata { return l.meta }

// Columns returns the names of all data columns, excluding the time
// column, in table order.
func (l *Loader) Columns() []string { return l.table.DataColumnNames() }

// Time returns the time column when the file has one.
func (l *Loader) Time() (*domain.Column, bool) { return l.table.TimeColumn() }

// Head returns the first n rows of the table.
func (l *Loader) Head(n int) *domain.Table { return l.table.Head(n) }

// Column returns a single data column by exact name. Unknown names
// return a *ChannelError listing the available channels.
func (l *Loader) Column(name string) (*domain.Column, error) {
	col, ok := l.table.Column(name)
	if !ok {
		return nil, &ChannelError{Name: name, Available: l.table.ColumnNames()}
	}
	return col, nil
}

// GetChannel returns the names of all data columns matching the given
// regular expression, preserving table order. Matching is a
// case-insensitive search, so partial patterns like "_01" or "^10"
// work. An empty result is valid.
func (l *Loader) GetChannel(pattern string) ([]string, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid channel pattern %q: %w", pattern, err)
	}

	var matches []string
	for _, name := range l.Columns() {
		if re.MatchString(name) {
			matches = append(matches, name)
		}
	}
	return matches, nil
}

// String implements fmt.Stringer
func (l *Loader) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Loader(file=%q, format=%q, rows=%d, columns=%d)",
		l.meta.Filename, l.format, l.table.Len(), len(l.Columns()))
	return b.String()
}

// ChannelError reports access to a channel name that does not exist in
// the table.
type ChannelError struct {
	Name      string
	Available []string
}

// Error implements the error interface
func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %q not found; available channels: %s",
		e.Name, strings.Join(e.Available, ", "))
}
