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

// KeithleyHandler parses Keithley instrument exports (2400/2450-series
// SourceMeters, DMM6500/DAQ6510 multimeters, 2100/2110 DMMs): CSV
// files with an instrument header above timestamped readings. When no
// time column exists a Reading counter is synthesized.
type KeithleyHandler struct {
	cfg *config.Config
}

// NewKeithleyHandler creates the Keithley format handler
func NewKeithleyHandler(cfg *config.Config) *KeithleyHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &KeithleyHandler{cfg: cfg}
}

// Name implements Handler
func (h *KeithleyHandler) Name() string { return "keithley" }

// Description implements Handler
func (h *KeithleyHandler) Description() string {
	return "Keithley SourceMeter and DMM exports"
}

var keithleyMarkers = []string{
	"keithley",
	"tektronix keithley",
	"sourcemeter",
	"source meter",
	"2400",
	"2450",
	"2460",
	"2470",
	"dmm6500",
	"daq6510",
	"2100",
	"2110",
	"kickstart",
}

var keithleyModel = regexp.MustCompile(`(\d{4}[a-zA-Z]?)`)

// Detect implements Handler
func (h *KeithleyHandler) Detect(path string) bool {
	switch {
	case hasExtension(path, ".csv", ".txt"):
		head, err := headText(path, h.cfg.Detection.ScanBytes)
		if err != nil {
			return false
		}
		return containsAny(headOnly(head, h.cfg.Detection.ScanRows+5), keithleyMarkers)
	case hasExtension(path, ".xlsx", ".xls"):
		return workbookContains(path, h.cfg.Detection.ScanRows, []string{"keithley", "sourcemeter"})
	default:
		return false
	}
}

// Parse implements Handler
func (h *KeithleyHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
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

	timeColumn := findTimeColumn(raw.headers, []string{"time", "timestamp", "date", "reading"})

	var table *domain.Table
	if timeColumn == "" {
		// No time axis in the export; count readings instead.
		columns := append(
			[]*domain.Column{indexColumn("Reading", len(raw.rows))},
			normalizeColumns(raw, "", h.cfg)...)
		timeColumn = "Reading"
		table, err = domain.NewTable(columns, timeColumn)
	} else {
		table, err = normalizeTable(raw, timeColumn, h.cfg)
	}
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	channels := table.DataColumnNames()
	units := unitsFromLabels(channels)
	for _, ch := range channels {
		if _, ok := units[ch]; ok {
			continue
		}
		if unit, ok := inferElectricalUnit(ch); ok {
			units[ch] = unit
		}
	}

	equipment := "Keithley Instrument"
	if model, ok := extra["model"]; ok {
		lower := strings.ToLower(model)
		switch {
		case strings.Contains(model, "24"):
			equipment = "Keithley SourceMeter"
		case strings.Contains(lower, "dmm") || strings.Contains(model, "21"):
			equipment = "Keithley DMM"
		case strings.Contains(lower, "daq"):
			equipment = "Keithley DAQ"
		}
	}

	var acquired time.Time
	if date, ok := extra["acquisition_date"]; ok {
		if t, ok := parseTimestamp(date); ok {
			acquired = t
			delete(extra, "acquisition_date")
		}
	}

	slog.Debug("parsed keithley export",
		slog.String("path", path),
		slog.String("equipment", equipment),
		slog.Int("channels", len(channels)))

	meta := &domain.Metadata{
		Filename:        filepath.Base(path),
		Equipment:       equipment,
		AcquisitionTime: acquired,
		Channels:        channels,
		TimeColumn:      timeColumn,
		Units:           units,
		Extra:           extra,
	}
	return table, meta, nil
}

func (h *KeithleyHandler) parseText(path string) (*rawTable, map[string]string, error) {
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
		if strings.Contains(lower, "keithley") || strings.Contains(lower, "model") {
			if m := keithleyModel.FindString(line); m != "" {
				extra["model"] = m
			}
		}
		if strings.Contains(lower, "date") {
			if m := isoDate.FindString(line); m != "" {
				extra["acquisition_date"] = m
			}
		}
		if strings.Contains(lower, "serial") {
			if _, after, found := strings.Cut(line, ":"); found {
				extra["serial"] = strings.TrimSpace(after)
			}
		}
	}

	headerRow := findHeaderRow(lines,
		[]string{"voltage", "current", "time", "reading", "v,", "i,"},
		10, limit, h.cfg.Parsing.NumericRowRatio)
	raw, err := parseDelimited(lines[headerRow:])
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "data block not found", err)
	}
	return raw, extra, nil
}

func (h *KeithleyHandler) parseWorkbook(path string) (*rawTable, map[string]string, error) {
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
	head := rowsText(rows[:min(len(rows), h.cfg.Parsing.HeaderSearchRows)])
	if strings.Contains(head, "keithley") {
		if m := keithleyModel.FindString(head); m != "" {
			extra["model"] = m
		}
	}

	headerRow := findHeaderRowInRows(rows, []string{"voltage", "current", "time", "reading"})
	if headerRow+1 >= len(rows) {
		return nil, nil, newParseError(h.Name(), path, "data block not found", nil)
	}
	return rawTableFromRows(rows, headerRow), extra, nil
}

// inferElectricalUnit guesses the unit of an unlabeled Keithley column
// from its name.
func inferElectricalUnit(channel string) (string, bool) {
	lower := strings.ToLower(channel)
	switch {
	case strings.Contains(lower, "volt") || lower == "v":
		return "V", true
	case strings.Contains(lower, "current") || lower == "i":
		return "A", true
	case strings.Contains(lower, "resist") || lower == "r":
		return "Ohm", true
	case strings.Contains(lower, "power") || lower == "p":
		return "W", true
	default:
		return "", false
	}
}
