package formats

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"labdata/internal/config"
	"labdata/pkg/contracts/domain"
)

// TektronixHandler parses Tektronix oscilloscope CSV exports (TDS,
// MSO/DPO, MDO series): a metadata preamble naming record length and
// sample interval, then a time column and CH1..CHn traces. When the
// export omits the time column it is rebuilt from the sample interval.
type TektronixHandler struct {
	cfg *config.Config
}

// NewTektronixHandler creates the Tektronix format handler
func NewTektronixHandler(cfg *config.Config) *TektronixHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &TektronixHandler{cfg: cfg}
}

// Name implements Handler
func (h *TektronixHandler) Name() string { return "tektronix" }

// Description implements Handler
func (h *TektronixHandler) Description() string {
	return "Tektronix oscilloscope CSV exports"
}

var tektronixMarkers = []string{
	"tektronix",
	"tds",
	"mso",
	"dpo",
	"mdo",
	"record length",
	"sample interval",
	"trigger point",
}

var (
	firstInt    = regexp.MustCompile(`(\d+)`)
	firstNumber = regexp.MustCompile(`-?[\d.]+(?:[eE][+-]?\d+)?`)
	chLabel     = regexp.MustCompile(`(?i)^ch(\d+)$`)
)

// Detect implements Handler
func (h *TektronixHandler) Detect(path string) bool {
	if !hasExtension(path, ".csv", ".txt") {
		return false
	}
	head, err := headText(path, h.cfg.Detection.ScanBytes)
	if err != nil {
		return false
	}
	return containsAny(headOnly(head, h.cfg.Detection.ScanRows), tektronixMarkers)
}

// Parse implements Handler
func (h *TektronixHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
	content, encodingName, err := readTextFile(path)
	if err != nil {
		if _, ok := err.(*EncodingError); ok {
			return nil, nil, err
		}
		return nil, nil, newParseError(h.Name(), path, "failed to read file", err)
	}

	extra := map[string]string{"encoding": encodingName}
	var sampleInterval float64
	lines := splitLines(content)
	limit := h.cfg.Parsing.HeaderSearchRows
	if limit > len(lines) {
		limit = len(lines)
	}

	for _, line := range lines[:limit] {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "record length") {
			if m := firstInt.FindString(line); m != "" {
				extra["record_length"] = m
			}
		}
		if strings.Contains(lower, "sample interval") {
			if m := firstNumber.FindString(stripLabel(line)); m != "" {
				if v, err := strconv.ParseFloat(m, 64); err == nil && v > 0 {
					sampleInterval = v
					extra["sample_interval"] = m
				}
			}
		}
		if strings.Contains(lower, "tektronix") || strings.Contains(lower, "model") {
			extra["model"] = strings.TrimSpace(line)
		}
	}

	headerRow := findHeaderRow(lines, []string{"time", "ch1"}, 5, limit, h.cfg.Parsing.NumericRowRatio)
	raw, err := parseDelimited(lines[headerRow:])
	if err != nil || len(raw.rows) == 0 {
		return nil, nil, newParseError(h.Name(), path, "data block not found", err)
	}

	for i, header := range raw.headers {
		raw.headers[i] = cleanScopeLabel(header)
	}

	timeColumn := ""
	for _, header := range raw.headers {
		lower := strings.ToLower(header)
		if strings.Contains(lower, "time") || lower == "t" {
			timeColumn = header
			break
		}
	}

	var table *domain.Table
	if timeColumn == "" && sampleInterval > 0 {
		// Rebuild the time axis from the declared sample interval.
		axis := make([]float64, len(raw.rows))
		for i := range axis {
			axis[i] = float64(i) * sampleInterval
		}
		columns := append(
			[]*domain.Column{domain.NewNumericColumn("Time", axis)},
			normalizeColumns(raw, "", h.cfg)...)
		timeColumn = "Time"
		table, err = domain.NewTable(columns, timeColumn)
	} else {
		table, err = normalizeTable(raw, timeColumn, h.cfg)
	}
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	channels := table.DataColumnNames()
	units := make(map[string]string)
	for _, ch := range channels {
		lower := strings.ToLower(ch)
		if strings.Contains(lower, "ch") || strings.Contains(lower, "math") {
			units[ch] = "V"
		}
	}

	var sampleRate float64
	if sampleInterval > 0 {
		sampleRate = 1.0 / sampleInterval
	}

	slog.Debug("parsed tektronix export",
		slog.String("path", path),
		slog.Float64("sample_rate", sampleRate),
		slog.Int("channels", len(channels)))

	meta := &domain.Metadata{
		Filename:   filepath.Base(path),
		Equipment:  "Tektronix Oscilloscope",
		Channels:   channels,
		TimeColumn: timeColumn,
		SampleRate: sampleRate,
		Units:      units,
		Extra:      extra,
	}
	return table, meta, nil
}

// stripLabel drops the field label so numeric extraction does not pick
// digits out of the label itself.
func stripLabel(line string) string {
	if _, after, found := strings.Cut(line, ":"); found {
		return after
	}
	if _, after, found := strings.Cut(line, ","); found {
		return after
	}
	return line
}

// cleanScopeLabel normalizes channel labels to the canonical CHn form.
func cleanScopeLabel(label string) string {
	s := strings.TrimSpace(label)
	if m := chLabel.FindStringSubmatch(s); m != nil {
		return "CH" + m[1]
	}
	return s
}
