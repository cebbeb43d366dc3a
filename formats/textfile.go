package formats

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"labdata/internal/config"
	"labdata/pkg/contracts/domain"
)

// readTextFile reads and decodes a whole text export.
func readTextFile(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return decodeText(path, data)
}

// headText reads at most maxBytes from the start of the file and
// decodes it leniently. Used by Detect, which must stay sublinear in
// file size and must never fail: decode problems yield a lossy but
// searchable string (the markers are all ASCII).
func headText(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return "", err
	}

	text, _, err := decodeText(path, data)
	if err != nil {
		// Truncation can split a multi-byte sequence; fall back to a
		// lossy interpretation for marker search.
		return string(data), nil
	}
	return text, nil
}

// headOnly trims decoded text to its first maxLines lines.
func headOnly(text string, maxLines int) string {
	lines := splitLines(text)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	// A trailing newline produces one empty phantom line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// containsAny reports whether the lowercased haystack contains any of
// the markers.
func containsAny(haystack string, markers []string) bool {
	h := strings.ToLower(haystack)
	for _, m := range markers {
		if strings.Contains(h, m) {
			return true
		}
	}
	return false
}

// hasExtension reports whether the path ends in one of the given
// lowercase extensions (with dot).
func hasExtension(path string, exts ...string) bool {
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// sniffDelimiter picks the separator that occurs most often in the
// header line, defaulting to comma.
func sniffDelimiter(line string) rune {
	best := ','
	bestCount := 0
	for _, d := range []rune{',', '\t', ';', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

// rawTable is an un-normalized data block: header labels plus rows of
// string cells, possibly ragged.
type rawTable struct {
	headers []string
	rows    [][]string
}

// column collects the cells of column i, padding ragged rows with "".
func (r *rawTable) column(i int) []string {
	cells := make([]string, len(r.rows))
	for j, row := range r.rows {
		if i < len(row) {
			cells[j] = row[i]
		}
	}
	return cells
}

// parseDelimited splits lines into a rawTable. The first line is the
// header; the delimiter is sniffed from it.
func parseDelimited(lines []string) (*rawTable, error) {
	if len(lines) == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = sniffDelimiter(lines[0])
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	return &rawTable{headers: headers, rows: records[1:]}, nil
}

// normalizeTable converts a raw data block into the uniform table:
// the designated time column is coerced to a time axis (kept verbatim
// when coercion fails entirely) and every other column becomes numeric
// with NaN standing in for cells that do not parse.
func normalizeTable(raw *rawTable, timeColumn string, cfg *config.Config) (*domain.Table, error) {
	return domain.NewTable(normalizeColumns(raw, timeColumn, cfg), timeColumn)
}

// normalizeColumns is the column-building half of normalizeTable, for
// variants that prepend a synthesized index column afterwards.
func normalizeColumns(raw *rawTable, timeColumn string, cfg *config.Config) []*domain.Column {
	columns := make([]*domain.Column, 0, len(raw.headers))
	seen := make(map[string]bool, len(raw.headers))

	for i, header := range raw.headers {
		name := header
		if name == "" {
			name = "Col_" + strconv.Itoa(i+1)
		}
		// Exports occasionally repeat labels; suffix duplicates so the
		// table invariant holds.
		base := name
		for n := 2; seen[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		seen[name] = true

		cells := raw.column(i)
		if name == timeColumn {
			if col, ok := CoerceTime(name, cells, cfg.Parsing.TimeParseRatio); ok {
				columns = append(columns, col)
				continue
			}
			columns = append(columns, domain.NewTextColumn(name, cells))
			continue
		}
		columns = append(columns, numericColumn(name, cells))
	}

	return columns
}

// findHeaderRow locates the header row of the data block within a
// text export: the first line containing one of the keywords, or the
// line above the first run of numeric cells once minRow metadata lines
// have passed. Falls back to the first line.
func findHeaderRow(lines []string, keywords []string, minRow, limit int, numericRatio float64) int {
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		lower := strings.ToLower(lines[i])
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
		if i > minRow && looksLikeDataLine(lines[i], numericRatio) {
			if i > 0 {
				return i - 1
			}
			return 0
		}
	}
	return 0
}

func looksLikeDataLine(line string, numericRatio float64) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	delim := sniffDelimiter(line)
	cells := strings.Split(line, string(delim))
	return LooksNumeric(cells, numericRatio)
}

// findHeaderRowInRows is findHeaderRow for workbook rows.
func findHeaderRowInRows(rows [][]string, keywords []string) int {
	for i, row := range rows {
		text := rowText(row)
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return i
			}
		}
	}
	return 0
}

// findTimeColumn returns the first header whose lowercased label
// contains one of the keywords, or "" when none does.
func findTimeColumn(headers []string, keywords []string) string {
	for _, header := range headers {
		lower := strings.ToLower(header)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return header
			}
		}
	}
	return ""
}

// unitsFromLabels builds the channel→unit map from trailing
// parenthesis groups in the channel labels.
func unitsFromLabels(channels []string) map[string]string {
	units := make(map[string]string)
	for _, ch := range channels {
		if _, unit, ok := SplitUnit(ch); ok {
			units[ch] = unit
		}
	}
	return units
}
