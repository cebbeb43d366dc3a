package formats

import (
	"encoding/csv"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"labdata/internal/config"
	"labdata/pkg/contracts/domain"
)

// GenericCSVHandler is the fallback for delimited text files that no
// instrument-specific handler claimed. It sniffs the delimiter, skips
// leading comment lines, detects whether a header row exists and finds
// or synthesizes a time axis.
type GenericCSVHandler struct {
	cfg *config.Config
}

// NewGenericCSVHandler creates the generic delimited-text handler
func NewGenericCSVHandler(cfg *config.Config) *GenericCSVHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &GenericCSVHandler{cfg: cfg}
}

// Name implements Handler
func (h *GenericCSVHandler) Name() string { return "csv" }

// Description implements Handler
func (h *GenericCSVHandler) Description() string {
	return "generic delimited text data files"
}

// Detect claims any delimited-text extension. Registered last, so it
// only sees files no richer variant wanted.
func (h *GenericCSVHandler) Detect(path string) bool {
	return hasExtension(path, ".csv", ".txt", ".tsv")
}

// timeKeywords mark a column label as a time axis. Single-letter
// keywords match exactly, the rest as substrings.
var timeKeywords = []string{"time", "date", "timestamp", "datetime", "elapsed", "seconds"}

// Parse implements Handler
func (h *GenericCSVHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
	content, encodingName, err := readTextFile(path)
	if err != nil {
		if _, ok := err.(*EncodingError); ok {
			return nil, nil, err
		}
		return nil, nil, newParseError(h.Name(), path, "failed to read file", err)
	}

	lines := splitLines(content)

	// Leading comment and blank lines are not part of the data block.
	skip := 0
	for skip < len(lines) {
		trimmed := strings.TrimSpace(lines[skip])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
			skip++
			continue
		}
		break
	}
	lines = lines[skip:]
	if len(lines) == 0 {
		return nil, nil, newParseError(h.Name(), path, "data block not found", nil)
	}

	delim := sniffDelimiter(lines[0])
	raw, hasHeader, err := h.readBlock(lines, delim)
	if err != nil || len(raw.rows) == 0 {
		return nil, nil, newParseError(h.Name(), path, "data block not found", err)
	}

	timeColumn := h.detectTimeColumn(raw)

	var table *domain.Table
	if timeColumn == "" {
		if monotonicNumeric(raw.column(0)) {
			timeColumn = raw.headers[0]
			table, err = normalizeTable(raw, timeColumn, h.cfg)
		} else {
			columns := append(
				[]*domain.Column{indexColumn("Index", len(raw.rows))},
				normalizeColumns(raw, "", h.cfg)...)
			timeColumn = "Index"
			table, err = domain.NewTable(columns, timeColumn)
		}
	} else {
		table, err = normalizeTable(raw, timeColumn, h.cfg)
	}
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	var sampleRate float64
	if axis, ok := table.TimeColumn(); ok {
		sampleRate = sampleRateFromAxis(axis)
	}

	channels := table.DataColumnNames()

	slog.Debug("parsed delimited text file",
		slog.String("path", path),
		slog.String("delimiter", string(delim)),
		slog.Bool("header", hasHeader),
		slog.Int("channels", len(channels)))

	meta := &domain.Metadata{
		Filename:   filepath.Base(path),
		Equipment:  "Generic CSV",
		Channels:   channels,
		TimeColumn: timeColumn,
		SampleRate: sampleRate,
		Units:      unitsFromLabels(channels),
		Extra: map[string]string{
			"encoding":  encodingName,
			"delimiter": string(delim),
		},
	}
	return table, meta, nil
}

// readBlock parses the delimited lines, deciding whether the first row
// is a header (majority of its cells non-numeric) or data (column
// names are synthesized).
func (h *GenericCSVHandler) readBlock(lines []string, delim rune) (*rawTable, bool, error) {
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}

	hasHeader := !LooksNumeric(records[0], h.cfg.Parsing.NumericRowRatio)
	if hasHeader {
		headers := make([]string, len(records[0]))
		for i, cell := range records[0] {
			headers[i] = strings.TrimSpace(cell)
		}
		return &rawTable{headers: headers, rows: records[1:]}, true, nil
	}

	headers := make([]string, len(records[0]))
	for i := range headers {
		headers[i] = "Col_" + strconv.Itoa(i+1)
	}
	return &rawTable{headers: headers, rows: records}, false, nil
}

// detectTimeColumn finds the time axis by label keyword, falling back
// to a first column whose head parses as timestamps.
func (h *GenericCSVHandler) detectTimeColumn(raw *rawTable) string {
	for _, header := range raw.headers {
		lower := strings.ToLower(header)
		if lower == "t" || lower == "ms" {
			return header
		}
		for _, kw := range timeKeywords {
			if strings.Contains(lower, kw) {
				return header
			}
		}
	}

	if len(raw.headers) > 0 {
		head := raw.column(0)
		if len(head) > 5 {
			head = head[:5]
		}
		parsed := 0
		for _, cell := range head {
			if _, ok := parseTimestamp(cell); ok {
				parsed++
			}
		}
		if parsed == len(head) && parsed > 0 {
			return raw.headers[0]
		}
	}

	return ""
}
