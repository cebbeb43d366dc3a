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

// RigolHandler parses Rigol oscilloscope CSV exports (DS1000/DS2000,
// MSO5000, DHO series). The column header names the axes as "X(S)" and
// "CH1(V)"; both are normalized to Time and CHn.
type RigolHandler struct {
	cfg *config.Config
}

// NewRigolHandler creates the Rigol format handler
func NewRigolHandler(cfg *config.Config) *RigolHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &RigolHandler{cfg: cfg}
}

// Name implements Handler
func (h *RigolHandler) Name() string { return "rigol" }

// Description implements Handler
func (h *RigolHandler) Description() string {
	return "Rigol oscilloscope CSV exports"
}

var rigolMarkers = []string{
	"rigol",
	"ds1",
	"ds2",
	"mso5",
	"dho",
	"dg1",
	"x(s)",
	"ch1(v)",
}

var (
	rigolModel   = regexp.MustCompile(`(?i)(ds\d+|mso\d+|dho\d+)`)
	rigolChannel = regexp.MustCompile(`(?i)^(ch\d+)\s*\(`)
)

// Detect implements Handler
func (h *RigolHandler) Detect(path string) bool {
	if !hasExtension(path, ".csv", ".txt") {
		return false
	}
	head, err := headText(path, h.cfg.Detection.ScanBytes)
	if err != nil {
		return false
	}
	return containsAny(headOnly(head, h.cfg.Detection.ScanRows), rigolMarkers)
}

// Parse implements Handler
func (h *RigolHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
	content, encodingName, err := readTextFile(path)
	if err != nil {
		if _, ok := err.(*EncodingError); ok {
			return nil, nil, err
		}
		return nil, nil, newParseError(h.Name(), path, "failed to read file", err)
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
		if strings.Contains(lower, "rigol") {
			extra["manufacturer"] = "Rigol"
		}
		if m := rigolModel.FindString(line); m != "" {
			extra["model"] = strings.ToUpper(m)
		}
		if strings.Contains(lower, "sample rate") {
			if m := firstNumber.FindString(stripLabel(line)); m != "" {
				if v, err := strconv.ParseFloat(m, 64); err == nil && v > 0 {
					sampleRate = v
				}
			}
		}
	}

	headerRow := findHeaderRow(lines, []string{"x(", "time", "ch1"}, 5, limit, h.cfg.Parsing.NumericRowRatio)
	raw, err := parseDelimited(lines[headerRow:])
	if err != nil || len(raw.rows) == 0 {
		return nil, nil, newParseError(h.Name(), path, "data block not found", err)
	}

	for i, header := range raw.headers {
		raw.headers[i] = cleanRigolLabel(header)
	}

	timeColumn := ""
	for _, header := range raw.headers {
		if header == "Time" {
			timeColumn = header
			break
		}
	}

	table, err := normalizeTable(raw, timeColumn, h.cfg)
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	if sampleRate == 0 {
		if axis, ok := table.TimeColumn(); ok {
			sampleRate = sampleRateFromAxis(axis)
		}
	}

	channels := table.DataColumnNames()
	units := make(map[string]string)
	for _, ch := range channels {
		if strings.HasPrefix(strings.ToUpper(ch), "CH") {
			units[ch] = "V"
		}
	}

	slog.Debug("parsed rigol export",
		slog.String("path", path),
		slog.Float64("sample_rate", sampleRate),
		slog.Int("channels", len(channels)))

	meta := &domain.Metadata{
		Filename:   filepath.Base(path),
		Equipment:  "Rigol Oscilloscope",
		Channels:   channels,
		TimeColumn: timeColumn,
		SampleRate: sampleRate,
		Units:      units,
		Extra:      extra,
	}
	return table, meta, nil
}

// cleanRigolLabel maps the Rigol header convention to canonical names:
// "X(S)" becomes Time, "CH1(V)" becomes CH1.
func cleanRigolLabel(label string) string {
	s := strings.TrimSpace(label)
	if strings.HasPrefix(strings.ToLower(s), "x(") {
		return "Time"
	}
	if m := rigolChannel.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1])
	}
	return s
}
