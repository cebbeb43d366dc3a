package formats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labdata/pkg/contracts/domain"
)

func TestSplitUnit(t *testing.T) {
	tests := []struct {
		label    string
		wantName string
		wantUnit string
		wantOK   bool
	}{
		{"101 (VDC)", "101", "VDC", true},
		{"Temp (°C)", "Temp", "°C", true},
		{"Channel 101 (Ohm)", "Channel 101", "Ohm", true},
		// Only the last trailing group is the unit.
		{"Ratio (A/B) (x)", "Ratio (A/B)", "x", true},
		{"CH1", "CH1", "", false},
		{"Time", "Time", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			name, unit, ok := SplitUnit(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		cell   string
		want   float64
		wantOK bool
	}{
		{"1.5", 1.5, true},
		{" -3 ", -3, true},
		{"2.5e-3", 0.0025, true},
		{`"3.14"`, 3.14, true},
		{"1,000", 1000, true},
		{"1,234,567.5", 1234567.5, true},
		{"", 0, false},
		{"CH1", 0, false},
		{"2024-01-01", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := parseNumber(tt.cell)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}

func TestLooksNumeric(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  bool
	}{
		{"all numeric", []string{"1", "2.5", "-3"}, true},
		{"majority numeric", []string{"1", "2", "OK"}, true},
		{"header row", []string{"Time", "CH1", "CH2"}, false},
		{"empty cells ignored", []string{"", "1", ""}, true},
		{"all empty", []string{"", ""}, false},
		{"no cells", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksNumeric(tt.cells, 0.5))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		cell   string
		want   time.Time
		wantOK bool
	}{
		{"2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024/05/01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		// BenchLink separates milliseconds with a colon.
		{"25/11/2025 17:37:51:442", time.Date(2025, 11, 25, 17, 37, 51, 442e6, time.UTC), true},
		{"25/11/2025 17:37:51", time.Date(2025, 11, 25, 17, 37, 51, 0, time.UTC), true},
		{"10:30:00", time.Date(0, 1, 1, 10, 30, 0, 0, time.UTC), true},
		{"0.125", time.Time{}, false},
		{"CH1", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := parseTimestamp(tt.cell)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestCoerceTimeTimestamps(t *testing.T) {
	col, ok := CoerceTime("Time", []string{
		"2024-03-15 10:00:00",
		"2024-03-15 10:00:01",
		"2024-03-15 10:00:02",
	}, 0.9)
	require.True(t, ok)
	assert.Equal(t, domain.KindTimestamp, col.Kind)
	assert.Equal(t, 3, col.Len())
	assert.Equal(t, time.Date(2024, 3, 15, 10, 0, 1, 0, time.UTC), col.Times[1])
}

func TestCoerceTimeElapsedSeconds(t *testing.T) {
	col, ok := CoerceTime("Time", []string{"0.0", "0.1", "0.2"}, 0.9)
	require.True(t, ok)
	assert.Equal(t, domain.KindNumeric, col.Kind)
	assert.Equal(t, []float64{0, 0.1, 0.2}, col.Floats)
}

func TestCoerceTimeFailure(t *testing.T) {
	_, ok := CoerceTime("Time", []string{"alpha", "beta", "gamma"}, 0.9)
	assert.False(t, ok)

	_, ok = CoerceTime("Time", []string{"", "", ""}, 0.9)
	assert.False(t, ok)
}

func TestCoerceTimeRatio(t *testing.T) {
	cells := []string{"2024-01-01", "2024-01-02", "junk"}

	// Two of three parse; a strict ratio rejects, a lax one accepts.
	_, ok := CoerceTime("Time", cells, 0.9)
	assert.False(t, ok)

	col, ok := CoerceTime("Time", cells, 0.5)
	require.True(t, ok)
	assert.Equal(t, domain.KindTimestamp, col.Kind)
	assert.True(t, col.IsMissing(2))
}

func TestNumericColumnMissingCells(t *testing.T) {
	col := numericColumn("CH1", []string{"1.5", "bad", ""})
	assert.Equal(t, 1.5, col.Floats[0])
	assert.True(t, math.IsNaN(col.Floats[1]))
	assert.True(t, math.IsNaN(col.Floats[2]))
}

func TestIndexColumn(t *testing.T) {
	col := indexColumn("Sample", 4)
	assert.Equal(t, []float64{0, 1, 2, 3}, col.Floats)
}

func TestMonotonicNumeric(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  bool
	}{
		{"increasing", []string{"0", "0.1", "0.2", "0.3"}, true},
		{"decreasing", []string{"5", "4", "3"}, true},
		{"constant", []string{"1", "1", "1"}, true},
		{"oscillating", []string{"0", "5", "2", "7"}, false},
		{"mostly unparsable", []string{"a", "b", "1", "2"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, monotonicNumeric(tt.cells))
		})
	}
}

func TestSampleRateFromAxis(t *testing.T) {
	axis := domain.NewNumericColumn("Time", []float64{0, 0.001, 0.002})
	assert.InDelta(t, 1000.0, sampleRateFromAxis(axis), 1e-9)

	assert.Zero(t, sampleRateFromAxis(domain.NewNumericColumn("Time", []float64{0})))
	assert.Zero(t, sampleRateFromAxis(domain.NewNumericColumn("Time", []float64{1, 1})))
	assert.Zero(t, sampleRateFromAxis(domain.NewTimestampColumn("Time", []time.Time{{}, {}})))
	assert.Zero(t, sampleRateFromAxis(nil))
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter("Time,CH1,CH2"))
	assert.Equal(t, '\t', sniffDelimiter("Time\tCH1\tCH2"))
	assert.Equal(t, ';', sniffDelimiter("Time;CH1;CH2"))
	assert.Equal(t, '|', sniffDelimiter("Time|CH1|CH2"))
	assert.Equal(t, ',', sniffDelimiter("justoneword"))
}

func TestFindHeaderRowByKeyword(t *testing.T) {
	lines := []string{
		"Instrument export",
		"Serial number 12345",
		"Time,CH1,CH2",
		"0,1,2",
	}
	assert.Equal(t, 2, findHeaderRow(lines, []string{"time", "ch1"}, 5, 30, 0.5))
}

func TestFindHeaderRowNumericFallback(t *testing.T) {
	lines := []string{
		"alpha", "beta", "gamma", "delta", "epsilon", "zeta",
		"Label_A,Label_B",
		"1.0,2.0",
		"1.1,2.1",
	}
	// No keyword matches; the line above the first numeric run wins.
	assert.Equal(t, 6, findHeaderRow(lines, []string{"time"}, 5, 30, 0.5))
}

func TestFindTimeColumn(t *testing.T) {
	headers := []string{"Scan", "Sweep Time", "101 (VDC)"}
	assert.Equal(t, "Sweep Time", findTimeColumn(headers, []string{"time", "date"}))
	assert.Equal(t, "", findTimeColumn(headers, []string{"elapsed"}))
}

func TestUnitsFromLabels(t *testing.T) {
	units := unitsFromLabels([]string{"101 (VDC)", "Temp (°C)", "CH1"})
	assert.Equal(t, map[string]string{
		"101 (VDC)": "VDC",
		"Temp (°C)": "°C",
	}, units)
}
