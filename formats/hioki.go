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

// HiokiHandler parses Hioki datalogger exports (LR8400-series loggers,
// MR8875 Memory HiCorders, LR8410/LR8416 wireless loggers). The files
// are CSV or workbook exports with Japanese or English headers and are
// frequently Shift-JIS encoded.
type HiokiHandler struct {
	cfg *config.Config
}

// NewHiokiHandler creates the Hioki format handler
func NewHiokiHandler(cfg *config.Config) *HiokiHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &HiokiHandler{cfg: cfg}
}

// Name implements Handler
func (h *HiokiHandler) Name() string { return "hioki" }

// Description implements Handler
func (h *HiokiHandler) Description() string {
	return "Hioki LR/MR series datalogger exports"
}

var hiokiMarkers = []string{
	"hioki",
	"lr8400",
	"lr8401",
	"lr8402",
	"lr8410",
	"lr8416",
	"mr8875",
	"memory hicorder",
}

var hiokiModel = regexp.MustCompile(`(?i)(lr\d+|mr\d+)`)

var isoDate = regexp.MustCompile(`(\d{4}[/-]\d{2}[/-]\d{2})`)

// hiokiTimeKeywords includes the Japanese header labels for time and
// date stamps.
var hiokiTimeKeywords = []string{"time", "date", "時間", "日時"}

// Detect implements Handler
func (h *HiokiHandler) Detect(path string) bool {
	switch {
	case hasExtension(path, ".csv", ".txt"):
		head, err := headText(path, h.cfg.Detection.ScanBytes)
		if err != nil {
			return false
		}
		return containsAny(headOnly(head, h.cfg.Detection.ScanRows), hiokiMarkers)
	case hasExtension(path, ".xlsx", ".xls"):
		return workbookContains(path, h.cfg.Detection.ScanRows, []string{"hioki", "lr84"})
	default:
		return false
	}
}

// Parse implements Handler
func (h *HiokiHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
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

	timeColumn := findTimeColumn(raw.headers, hiokiTimeKeywords)
	table, err := normalizeTable(raw, timeColumn, h.cfg)
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	channels := table.DataColumnNames()

	equipment := "Hioki Datalogger"
	if model, ok := extra["model"]; ok {
		switch {
		case strings.HasPrefix(model, "MR"):
			equipment = "Hioki Memory HiCorder"
		case strings.HasPrefix(model, "LR"):
			equipment = "Hioki LR Datalogger"
		}
	}

	var acquired time.Time
	if date, ok := extra["acquisition_date"]; ok {
		if t, ok := parseTimestamp(date); ok {
			acquired = t
			delete(extra, "acquisition_date")
		}
	}

	slog.Debug("parsed hioki export",
		slog.String("path", path),
		slog.String("equipment", equipment),
		slog.Int("channels", len(channels)))

	meta := &domain.Metadata{
		Filename:        filepath.Base(path),
		Equipment:       equipment,
		AcquisitionTime: acquired,
		Channels:        channels,
		TimeColumn:      timeColumn,
		Units:           unitsFromLabels(channels),
		Extra:           extra,
	}
	return table, meta, nil
}

func (h *HiokiHandler) parseText(path string) (*rawTable, map[string]string, error) {
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
		if strings.Contains(lower, "hioki") {
			extra["manufacturer"] = "Hioki"
		}
		if m := hiokiModel.FindString(lower); m != "" {
			extra["model"] = strings.ToUpper(m)
		}
		if strings.Contains(lower, "date") || strings.Contains(line, "日付") {
			if m := isoDate.FindString(line); m != "" {
				extra["acquisition_date"] = m
			}
		}
	}

	headerRow := findHeaderRow(lines, []string{"time", "ch", "時間"}, 10, limit, h.cfg.Parsing.NumericRowRatio)
	raw, err := parseDelimited(lines[headerRow:])
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "data block not found", err)
	}
	return raw, extra, nil
}

func (h *HiokiHandler) parseWorkbook(path string) (*rawTable, map[string]string, error) {
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
	if containsAny(rowsText(rows[:min(len(rows), h.cfg.Parsing.HeaderSearchRows)]), []string{"hioki"}) {
		extra["manufacturer"] = "Hioki"
	}

	headerRow := findHeaderRowInRows(rows, []string{"time", "ch", "時間"})
	if headerRow+1 >= len(rows) {
		return nil, nil, newParseError(h.Name(), path, "data block not found", nil)
	}
	return rawTableFromRows(rows, headerRow), extra, nil
}
