package formats

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"labdata/pkg/contracts/domain"
)

// unitSuffix captures a single trailing parenthesis group. The greedy
// prefix makes sure only the last group is treated as the unit, so
// "Ratio (A/B) (x)" splits into "Ratio (A/B)" and "x".
var unitSuffix = regexp.MustCompile(`^(.*\S)\s*\(([^()]+)\)\s*$`)

// SplitUnit splits a column label into channel name and physical unit
// using the trailing-parenthesis convention, e.g. "101 (VDC)" into
// "101" and "VDC". Labels without a trailing group are returned
// unchanged with ok=false.
func SplitUnit(label string) (name, unit string, ok bool) {
	m := unitSuffix.FindStringSubmatch(label)
	if m == nil {
		return label, "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// parseNumber parses one data cell. Thousands separators are stripped
// so values like "1,000" survive, mirroring how the instruments format
// large counts.
func parseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	s = strings.Trim(s, `"'`)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if strings.Contains(s, ",") {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// LooksNumeric reports whether a run of cells is data rather than
// header text: at least minRatio of its non-empty cells parse as
// numbers.
func LooksNumeric(cells []string, minRatio float64) bool {
	nonEmpty := 0
	numeric := 0
	for _, cell := range cells {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		nonEmpty++
		if _, ok := parseNumber(cell); ok {
			numeric++
		}
	}
	if nonEmpty == 0 {
		return false
	}
	return float64(numeric) >= minRatio*float64(nonEmpty)
}

// timestampLayouts are tried in order when coercing a cell to an
// absolute time.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05.000",
	"02/01/2006 15:04:05",
	"01/02/2006 03:04:05 PM",
	"2006-01-02",
	"2006/01/02",
	"15:04:05.000",
	"15:04:05",
}

// benchlinkMillis matches the BenchLink timestamp variant that
// separates milliseconds with a colon ("25/11/2025 17:37:51:442"),
// which Go layouts cannot express directly.
var benchlinkMillis = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}):(\d{1,3})$`)

func parseTimestamp(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	if m := benchlinkMillis.FindStringSubmatch(s); m != nil {
		s = m[1] + "." + m[2]
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CoerceTime attempts to interpret a run of cells as a time axis.
// Absolute timestamps are tried first, then bare numbers representing
// elapsed seconds or sample counts; the first method that parses at
// least minRatio of the non-missing cells wins. On total failure it
// returns (nil, false) rather than an error.
func CoerceTime(name string, cells []string, minRatio float64) (*domain.Column, bool) {
	nonEmpty := 0
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, false
	}

	times := make([]time.Time, len(cells))
	parsed := 0
	for i, cell := range cells {
		if t, ok := parseTimestamp(cell); ok {
			times[i] = t
			parsed++
		}
	}
	if float64(parsed) >= minRatio*float64(nonEmpty) {
		return domain.NewTimestampColumn(name, times), true
	}

	floats := make([]float64, len(cells))
	parsed = 0
	for i, cell := range cells {
		if v, ok := parseNumber(cell); ok {
			floats[i] = v
			parsed++
		} else {
			floats[i] = math.NaN()
		}
	}
	if float64(parsed) >= minRatio*float64(nonEmpty) {
		return domain.NewNumericColumn(name, floats), true
	}

	return nil, false
}

// numericColumn coerces a run of cells into a numeric column. Cells
// that do not parse become NaN, never a failure.
func numericColumn(name string, cells []string) *domain.Column {
	floats := make([]float64, len(cells))
	for i, cell := range cells {
		if v, ok := parseNumber(cell); ok {
			floats[i] = v
		} else {
			floats[i] = math.NaN()
		}
	}
	return domain.NewNumericColumn(name, floats)
}

// indexColumn synthesizes a 0..n-1 sample counter used when a format
// carries no time axis of its own.
func indexColumn(name string, n int) *domain.Column {
	floats := make([]float64, n)
	for i := range floats {
		floats[i] = float64(i)
	}
	return domain.NewNumericColumn(name, floats)
}

// monotonicNumeric reports whether the cells parse as a monotonic
// numeric run (at most 10% unparsable), the shape of a time or index
// axis without a telling label.
func monotonicNumeric(cells []string) bool {
	var prev float64
	parsed := 0
	increasing := true
	decreasing := true
	for _, cell := range cells {
		v, ok := parseNumber(cell)
		if !ok {
			continue
		}
		if parsed > 0 {
			if v < prev {
				increasing = false
			}
			if v > prev {
				decreasing = false
			}
		}
		prev = v
		parsed++
	}
	if parsed == 0 || float64(len(cells)-parsed) > 0.1*float64(len(cells)) {
		return false
	}
	return increasing || decreasing
}

// sampleRateFromAxis derives a sample rate in Hz from the spacing of
// the first two values of a numeric time axis.
func sampleRateFromAxis(col *domain.Column) float64 {
	if col == nil || col.Kind != domain.KindNumeric || len(col.Floats) < 2 {
		return 0
	}
	dt := col.Floats[1] - col.Floats[0]
	if math.IsNaN(dt) || dt <= 0 {
		return 0
	}
	return 1.0 / dt
}
