package formats

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"labdata/internal/config"
	"labdata/pkg/contracts/domain"
)

// KeysightHandler parses Keysight 34970A/34972A BenchLink Data Logger
// exports: a metadata header in the first rows (name, owner,
// acquisition date, instrument and slot cards), followed by a data
// block whose header row starts with "Scan". Each channel column may
// be accompanied by an alarm column, which is dropped.
type KeysightHandler struct {
	cfg *config.Config
}

// NewKeysightHandler creates the Keysight BenchLink format handler
func NewKeysightHandler(cfg *config.Config) *KeysightHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &KeysightHandler{cfg: cfg}
}

// Name implements Handler
func (h *KeysightHandler) Name() string { return "keysight" }

// Description implements Handler
func (h *KeysightHandler) Description() string {
	return "Keysight 34970A BenchLink Data Logger exports"
}

// Detect looks for the instrument family or the BenchLink header
// labels within the first rows of the first sheet.
func (h *KeysightHandler) Detect(path string) bool {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return false
	}
	defer f.Close()

	rows, err := scanFirstSheet(f, h.cfg.Detection.ScanRows)
	if err != nil {
		return false
	}
	return containsAny(rowsText(rows), []string{"34970", "34972", "instrument:"})
}

// Parse implements Handler
func (h *KeysightHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, newParseError(h.Name(), path, "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to read sheet", err)
	}

	extra, acquired := h.parseHeader(rows)

	scanRow := -1
	for i, row := range rows {
		if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "scan") {
			scanRow = i
			break
		}
	}
	if scanRow < 0 || scanRow+1 >= len(rows) {
		return nil, nil, newParseError(h.Name(), path, `data block not found (no "Scan" header row)`, nil)
	}

	raw := dropAlarmColumns(rawTableFromRows(rows, scanRow))

	timeColumn := ""
	for _, header := range raw.headers {
		if strings.Contains(strings.ToLower(header), "time") {
			timeColumn = header
			break
		}
	}

	table, err := normalizeTable(raw, timeColumn, h.cfg)
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	// The scan counter is part of the table but is not a channel.
	channels := make([]string, 0, len(table.DataColumnNames()))
	units := make(map[string]string)
	for _, ch := range table.DataColumnNames() {
		if strings.EqualFold(ch, "scan") {
			continue
		}
		channels = append(channels, ch)
		if _, unit, ok := SplitUnit(ch); ok {
			units[ch] = unit
		}
	}

	slog.Debug("parsed keysight export",
		slog.String("path", path),
		slog.Int("header_rows", scanRow),
		slog.Int("channels", len(channels)),
		slog.Int("scans", table.Len()))

	meta := &domain.Metadata{
		Filename:        filepath.Base(path),
		Equipment:       "Keysight 34970A",
		AcquisitionTime: acquired,
		Channels:        channels,
		TimeColumn:      timeColumn,
		Units:           units,
		Extra:           extra,
	}
	return table, meta, nil
}

// parseHeader extracts the BenchLink metadata block. Every field is
// optional; whatever is present lands in the extras map, and the
// acquisition date is additionally parsed into a timestamp when its
// format allows.
func (h *KeysightHandler) parseHeader(rows [][]string) (map[string]string, time.Time) {
	extra := make(map[string]string)
	var acquired time.Time

	limit := h.cfg.Parsing.HeaderSearchRows
	if limit > len(rows) {
		limit = len(rows)
	}

	for _, row := range rows[:limit] {
		if len(row) == 0 {
			continue
		}
		first := strings.ToLower(strings.TrimSpace(row[0]))
		value := ""
		if len(row) > 1 {
			value = strings.TrimSpace(row[1])
		}

		switch {
		case strings.Contains(first, "name:"):
			extra["name"] = value
		case strings.Contains(first, "owner:"):
			extra["owner"] = value
		case strings.Contains(first, "acquisition date:"):
			if t, ok := parseTimestamp(value); ok {
				acquired = t
			} else if value != "" {
				extra["acquisition_date"] = value
			}
		case strings.Contains(first, "instrument:"):
			extra["instrument"] = value
			// Slot cards are listed on the instrument row as
			// "Slot N:" cells followed by the card model.
			for j, cell := range row {
				lower := strings.ToLower(strings.TrimSpace(cell))
				if strings.Contains(lower, "slot") && j+1 < len(row) {
					key := strings.ReplaceAll(strings.TrimSuffix(lower, ":"), " ", "_")
					extra[key] = strings.TrimSpace(row[j+1])
				}
			}
		case strings.Contains(first, "total channels:"):
			extra["total_channels"] = value
		}
	}

	return extra, acquired
}

// dropAlarmColumns removes the alarm column BenchLink interleaves with
// every channel column.
func dropAlarmColumns(raw *rawTable) *rawTable {
	keep := make([]int, 0, len(raw.headers))
	for i, header := range raw.headers {
		if strings.Contains(strings.ToLower(header), "alarm") {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == len(raw.headers) {
		return raw
	}

	out := &rawTable{headers: make([]string, len(keep)), rows: make([][]string, len(raw.rows))}
	for j, i := range keep {
		out.headers[j] = raw.headers[i]
	}
	for r, row := range raw.rows {
		cells := make([]string, len(keep))
		for j, i := range keep {
			if i < len(row) {
				cells[j] = row[i]
			}
		}
		out.rows[r] = cells
	}
	return out
}
