package formats

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"labdata/internal/config"
	"labdata/pkg/contracts/domain"
)

// FlukeHandler parses Fluke datalogger exports (Hydra 2680/2686
// series, 2638A Hydra III, 1620A/1621A DewK): CSV or workbook files
// with a short metadata header above timestamped channel readings.
type FlukeHandler struct {
	cfg *config.Config
}

// NewFlukeHandler creates the Fluke format handler
func NewFlukeHandler(cfg *config.Config) *FlukeHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &FlukeHandler{cfg: cfg}
}

// Name implements Handler
func (h *FlukeHandler) Name() string { return "fluke" }

// Description implements Handler
func (h *FlukeHandler) Description() string {
	return "Fluke Hydra datalogger exports"
}

var flukeMarkers = []string{
	"fluke",
	"hydra",
	"2680",
	"2686",
	"2638",
	"1620",
	"1621",
	"dewk",
}

var flukeModel = regexp.MustCompile(`(\d{4}[a-zA-Z]?)`)

// Detect implements Handler
func (h *FlukeHandler) Detect(path string) bool {
	switch {
	case hasExtension(path, ".csv", ".txt"):
		head, err := headText(path, h.cfg.Detection.ScanBytes)
		if err != nil {
			return false
		}
		return containsAny(headOnly(head, h.cfg.Detection.ScanRows), flukeMarkers)
	case hasExtension(path, ".xlsx", ".xls"):
		return workbookContains(path, h.cfg.Detection.ScanRows, []string{"fluke", "hydra"})
	default:
		return false
	}
}

// Parse implements Handler
func (h *FlukeHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
	var (
		raw   *rawTable
		extra map[string]string
		err   error
	)
	if hasExtension(path, ".xlsx", ".xls") {
		raw, extra, err = h.parseWorkbook(path)
	} else {
		raw, extra, err = h.parseText(path)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(raw.rows) == 0 {
		return nil, nil, newParseError(h.Name(), path, "data block not found", nil)
	}

	timeColumn := findTimeColumn(raw.headers, []string{"time", "date", "timestamp", "scan"})
	table, err := normalizeTable(raw, timeColumn, h.cfg)
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	channels := table.DataColumnNames()

	var acquired time.Time
	if date, ok := extra["acquisition_date"]; ok {
		if t, ok := parseTimestamp(date); ok {
			acquired = t
			delete(extra, "acquisition_date")
		}
	}

	slog.Debug("parsed fluke export",
		slog.String("path", path),
		slog.Int("channels", len(channels)),
		slog.Int("rows", table.Len()))

	meta := &domain.Metadata{
		Filename:        filepath.Base(path),
		Equipment:       "Fluke Hydra Datalogger",
		AcquisitionTime: acquired,
		Channels:        channels,
		TimeColumn:      timeColumn,
		Units:           unitsFromLabels(channels),
		Extra:           extra,
	}
	return table, meta, nil
}

func (h *FlukeHandler) parseText(path string) (*rawTable, map[string]string, error) {
	content, encodingName, err := readTextFile(path)
	if err != nil {
		if _, ok := err.(*EncodingError); ok {
			return nil, nil, err
		}
		return nil, nil, newParseError(h.Name(), path, "failed to read file", err)
	}

	extra := map[string]string{"encoding": encodingName}
	lines := splitLines(content)
	limit := h.cfg.Parsing.HeaderSearchRows
	if limit > len(lines) {
		limit = len(lines)
	}

	for _, line := range lines[:limit] {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "fluke") || strings.Contains(lower, "hydra") {
			extra["manufacturer"] = "Fluke"
			if m := flukeModel.FindString(line); m != "" {
				extra["model"] = m
			}
		}
		if strings.Contains(lower, "date") {
			if m := isoDate.FindString(line); m != "" {
				extra["acquisition_date"] = m
			}
		}
	}

	headerRow := findHeaderRow(lines, []string{"time", "channel", "ch"}, 8, limit, h.cfg.Parsing.NumericRowRatio)
	raw, err := parseDelimited(lines[headerRow:])
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "data block not found", err)
	}
	return raw, extra, nil
}

func (h *FlukeHandler) parseWorkbook(path string) (*rawTable, map[string]string, error) {
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
	if err != nil || len(rows) == 0 {
		return nil, nil, newParseError(h.Name(), path, "failed to read sheet", err)
	}

	extra := make(map[string]string)
	if containsAny(rowsText(rows[:min(len(rows), h.cfg.Parsing.HeaderSearchRows)]), []string{"fluke", "hydra"}) {
		extra["manufacturer"] = "Fluke"
	}

	headerRow := findHeaderRowInRows(rows, []string{"time", "channel"})
	if headerRow+1 >= len(rows) {
		return nil, nil, newParseError(h.Name(), path, "data block not found", nil)
	}
	return rawTableFromRows(rows, headerRow), extra, nil
}
