package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keithleyExport = "Keithley Instruments Model 2450\n" +
	"Serial: 04312345\n" +
	"Voltage (V),Current (A)\n" +
	"1.00,0.001\n" +
	"1.01,0.001\n" +
	"1.02,0.002\n"

func TestKeithleyDetect(t *testing.T) {
	h := NewKeithleyHandler(nil)

	assert.True(t, h.Detect(writeTempFile(t, "iv.csv", []byte(keithleyExport))))
	assert.True(t, h.Detect(writeTempFile(t, "dmm.csv", []byte("DMM6500 KickStart Export\nReading,Value\n1,0.5\n"))))
	assert.False(t, h.Detect(writeTempFile(t, "other.csv", []byte("Time,CH1\n0,1\n"))))
}

func TestKeithleyParseSynthesizesReadingAxis(t *testing.T) {
	path := writeTempFile(t, "iv.csv", []byte(keithleyExport))

	h := NewKeithleyHandler(nil)
	table, meta, err := h.Parse(path)
	require.NoError(t, err)

	// The export has no time column; a reading counter stands in.
	assert.Equal(t, []string{"Reading", "Voltage (V)", "Current (A)"}, table.ColumnNames())
	assert.Equal(t, "Reading", meta.TimeColumn)
	axis, ok := table.TimeColumn()
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2}, axis.Floats)

	assert.Equal(t, "Keithley SourceMeter", meta.Equipment)
	assert.Equal(t, "2450", meta.Extra["model"])
	assert.Equal(t, "04312345", meta.Extra["serial"])
	assert.Equal(t, []string{"Voltage (V)", "Current (A)"}, meta.Channels)
	assert.Equal(t, map[string]string{
		"Voltage (V)": "V",
		"Current (A)": "A",
	}, meta.Units)
}

func TestKeithleyParseKeepsTimeColumn(t *testing.T) {
	content := "Keithley 2110 DMM\n" +
		"Time,Voltage\n" +
		"0.0,1.00\n" +
		"0.1,1.01\n"
	path := writeTempFile(t, "dmm.csv", []byte(content))

	h := NewKeithleyHandler(nil)
	_, meta, err := h.Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "Time", meta.TimeColumn)
	assert.Equal(t, "Keithley DMM", meta.Equipment)
	// Unlabeled voltage column gets its unit inferred from the name.
	assert.Equal(t, map[string]string{"Voltage": "V"}, meta.Units)
}

func TestInferElectricalUnit(t *testing.T) {
	tests := []struct {
		channel string
		want    string
		wantOK  bool
	}{
		{"Voltage", "V", true},
		{"v", "V", true},
		{"Current Reading", "A", true},
		{"i", "A", true},
		{"Resistance", "Ohm", true},
		{"Power", "W", true},
		{"Temperature", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			got, ok := inferElectricalUnit(tt.channel)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
