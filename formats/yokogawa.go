package formats

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"labdata/internal/config"
	"labdata/pkg/contracts/domain"
)

// YokogawaHandler parses Yokogawa acquisition exports: DL-series
// oscilloscopes, SL ScopeCorders, WT power analyzers and MW100/MW200
// data acquisition units. The CSV header usually names the model and
// the sample rate; channel labels may carry bracket units ("CH1[V]").
type YokogawaHandler struct {
	cfg *config.Config
}

// NewYokogawaHandler creates the Yokogawa format handler
func NewYokogawaHandler(cfg *config.Config) *YokogawaHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &YokogawaHandler{cfg: cfg}
}

// Name implements Handler
func (h *YokogawaHandler) Name() string { return "yokogawa" }

// Description implements Handler
func (h *YokogawaHandler) Description() string {
	return "Yokogawa DL/SL/WT/MW series exports"
}

var yokogawaMarkers = []string{
	"yokogawa",
	"dl850",
	"dl350",
	"dl750",
	"sl1000",
	"wt300",
	"wt500",
	"wt1800",
	"wt3000",
	"wt5000",
	"mw100",
	"mw200",
	"scopecorder",
	"dlm",
}

var yokogawaModel = regexp.MustCompile(`(?i)(dlm\d*|dl\d+|sl\d+|wt\d+|mw\d+)`)

var yokogawaSampleRate = regexp.MustCompile(`([\d.]+)\s*(hz|khz|mhz|s|ms|us)`)

var bracketUnit = regexp.MustCompile(`\[([^\]]+)\]`)

// Detect implements Handler
func (h *YokogawaHandler) Detect(path string) bool {
	switch {
	case hasExtension(path, ".csv", ".txt"):
		head, err := headText(path, h.cfg.Detection.ScanBytes)
		if err != nil {
			return false
		}
		return containsAny(headOnly(head, h.cfg.Detection.ScanRows+10), yokogawaMarkers)
	case hasExtension(path, ".xlsx", ".xls"):
		return workbookContains(path, h.cfg.Detection.ScanRows, []string{"yokogawa", "dl850", "scopecorder"})
	default:
		return false
	}
}

// Parse implements Handler
func (h *YokogawaHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
	var (
		raw        *rawTable
		extra      map[string]string
		sampleRate float64
		err        error
	)
	if hasExtension(path, ".xlsx", ".xls") {
		raw, extra, err = h.parseWorkbook(path)
	} else {
		raw, extra, sampleRate, err = h.parseText(path)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(raw.rows) == 0 {
		return nil, nil, newParseError(h.Name(), path, "data block not found", nil)
	}

	timeColumn := findTimeColumn(raw.headers, []string{"time", "date", "t[s]", "t[ms]", "elapsed"})
	if timeColumn == "" && len(raw.headers) > 0 && monotonicNumeric(raw.column(0)) {
		timeColumn = raw.headers[0]
	}

	table, err := normalizeTable(raw, timeColumn, h.cfg)
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	channels := table.DataColumnNames()
	units := unitsFromLabels(channels)
	for _, ch := range channels {
		// Yokogawa labels units in brackets: "CH1[V]", "P1[W]".
		if m := bracketUnit.FindStringSubmatch(ch); m != nil {
			units[ch] = m[1]
		}
	}

	if sampleRate == 0 {
		if axis, ok := table.TimeColumn(); ok {
			sampleRate = sampleRateFromAxis(axis)
		}
	}

	equipment := "Yokogawa"
	if model, ok := extra["model"]; ok {
		switch {
		case strings.HasPrefix(model, "DL"):
			equipment = "Yokogawa DL Oscilloscope"
		case strings.HasPrefix(model, "SL"):
			equipment = "Yokogawa ScopeCorder"
		case strings.HasPrefix(model, "WT"):
			equipment = "Yokogawa WT Power Analyzer"
		case strings.HasPrefix(model, "MW"):
			equipment = "Yokogawa MW Data Acquisition"
		}
	}

	var acquired time.Time
	if date, ok := extra["acquisition_date"]; ok {
		if t, ok := parseTimestamp(date); ok {
			acquired = t
			delete(extra, "acquisition_date")
		}
	}

	slog.Debug("parsed yokogawa export",
		slog.String("path", path),
		slog.String("equipment", equipment),
		slog.Float64("sample_rate", sampleRate),
		slog.Int("channels", len(channels)))

	meta := &domain.Metadata{
		Filename:        filepath.Base(path),
		Equipment:       equipment,
		AcquisitionTime: acquired,
		Channels:        channels,
		TimeColumn:      timeColumn,
		SampleRate:      sampleRate,
		Units:           units,
		Extra:           extra,
	}
	return table, meta, nil
}

func (h *YokogawaHandler) parseText(path string) (*rawTable, map[string]string, float64, error) {
	content, encodingName, err := readTextFile(path)
	if err != nil {
		if _, ok := err.(*EncodingError); ok {
			return nil, nil, 0, err
		}
		return nil, nil, 0, newParseError(h.Name(), path, "failed to read file", err)
	}

	extra := map[string]string{"encoding": encodingName}
	var sampleRate float64
	lines := splitLines(content)
	limit := h.cfg.Parsing.HeaderSearchRows
	if limit > len(lines) {
		limit = len(lines)
	}

	for _, line := range lines[:limit] {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "yokogawa") || strings.Contains(lower, "model") {
			if m := yokogawaModel.FindString(line); m != "" {
				extra["model"] = strings.ToUpper(m)
			}
		}
		if strings.Contains(lower, "date") {
			if m := isoDate.FindString(line); m != "" {
				extra["acquisition_date"] = m
			}
		}
		if strings.Contains(lower, "sample") && strings.Contains(lower, "rate") {
			if rate, ok := parseRate(lower); ok {
				sampleRate = rate
			}
		}
	}

	headerRow := findHeaderRow(lines, []string{"time", "ch1", "ch 1"}, 10, limit, h.cfg.Parsing.NumericRowRatio)
	raw, err := parseDelimited(lines[headerRow:])
	if err != nil {
		return nil, nil, 0, newParseError(h.Name(), path, "data block not found", err)
	}
	return raw, extra, sampleRate, nil
}

func (h *YokogawaHandler) parseWorkbook(path string) (*rawTable, map[string]string, error) {
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
	if m := yokogawaModel.FindString(rowsText(rows[:min(len(rows), h.cfg.Parsing.HeaderSearchRows)])); m != "" {
		extra["model"] = strings.ToUpper(m)
	}

	headerRow := findHeaderRowInRows(rows, []string{"time", "ch1"})
	if headerRow+1 >= len(rows) {
		return nil, nil, newParseError(h.Name(), path, "data block not found", nil)
	}
	return rawTableFromRows(rows, headerRow), extra, nil
}

// parseRate converts a "Sample rate: 100 kHz" style declaration to Hz.
// Period units (s/ms/us) are inverted.
func parseRate(lower string) (float64, bool) {
	m := yokogawaSampleRate.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value == 0 {
		return 0, false
	}
	switch m[2] {
	case "khz":
		value *= 1e3
	case "mhz":
		value *= 1e6
	case "s":
		value = 1.0 / value
	case "ms":
		value = 1000.0 / value
	case "us":
		value = 1e6 / value
	}
	return value, true
}
