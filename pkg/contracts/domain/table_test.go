package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	tests := []struct {
		name       string
		columns    []*Column
		timeColumn string
		wantErr    string
	}{
		{
			name: "valid table with time column",
			columns: []*Column{
				NewNumericColumn("Time", []float64{0, 1, 2}),
				NewNumericColumn("CH1", []float64{0.1, 0.2, 0.3}),
			},
			timeColumn: "Time",
		},
		{
			name: "valid table without time column",
			columns: []*Column{
				NewNumericColumn("CH1", []float64{0.1, 0.2}),
			},
		},
		{
			name:    "no columns",
			wantErr: "at least one column",
		},
		{
			name: "duplicate column names",
			columns: []*Column{
				NewNumericColumn("CH1", []float64{1}),
				NewNumericColumn("CH1", []float64{2}),
			},
			wantErr: "duplicate column name",
		},
		{
			name: "unequal column lengths",
			columns: []*Column{
				NewNumericColumn("Time", []float64{0, 1}),
				NewNumericColumn("CH1", []float64{0.1}),
			},
			wantErr: "rows",
		},
		{
			name: "unknown time column",
			columns: []*Column{
				NewNumericColumn("CH1", []float64{1}),
			},
			timeColumn: "Time",
			wantErr:    "not among the table columns",
		},
		{
			name: "empty column name",
			columns: []*Column{
				NewNumericColumn("", []float64{1}),
			},
			wantErr: "empty name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.columns, tt.timeColumn)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, table)
		})
	}
}

func TestTableAccessors(t *testing.T) {
	table, err := NewTable([]*Column{
		NewNumericColumn("Time", []float64{0, 0.5, 1.0}),
		NewNumericColumn("101 (VDC)", []float64{1.1, 1.2, 1.3}),
		NewNumericColumn("102 (VDC)", []float64{2.1, 2.2, 2.3}),
	}, "Time")
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 3, table.NumColumns())
	assert.Equal(t, []string{"Time", "101 (VDC)", "102 (VDC)"}, table.ColumnNames())
	assert.Equal(t, []string{"101 (VDC)", "102 (VDC)"}, table.DataColumnNames())

	name, ok := table.TimeName()
	require.True(t, ok)
	assert.Equal(t, "Time", name)

	axis, ok := table.TimeColumn()
	require.True(t, ok)
	assert.Equal(t, "Time", axis.Name)
	assert.Equal(t, KindNumeric, axis.Kind)

	col, ok := table.Column("102 (VDC)")
	require.True(t, ok)
	assert.Equal(t, []float64{2.1, 2.2, 2.3}, col.Floats)

	_, ok = table.Column("missing")
	assert.False(t, ok)

	assert.Equal(t, "Time", table.ColumnAt(0).Name)
}

func TestTableWithoutTimeColumn(t *testing.T) {
	table, err := NewTable([]*Column{
		NewNumericColumn("CH1", []float64{1, 2}),
	}, "")
	require.NoError(t, err)

	_, ok := table.TimeName()
	assert.False(t, ok)
	_, ok = table.TimeColumn()
	assert.False(t, ok)
	assert.Equal(t, []string{"CH1"}, table.DataColumnNames())
}

func TestTableHead(t *testing.T) {
	table, err := NewTable([]*Column{
		NewNumericColumn("Time", []float64{0, 1, 2, 3, 4}),
		NewNumericColumn("CH1", []float64{5, 6, 7, 8, 9}),
	}, "Time")
	require.NoError(t, err)

	head := table.Head(2)
	assert.Equal(t, 2, head.Len())
	col, ok := head.Column("CH1")
	require.True(t, ok)
	assert.Equal(t, []float64{5, 6}, col.Floats)

	// n beyond the row count clamps instead of panicking.
	assert.Equal(t, 5, table.Head(10).Len())

	// Head copies; mutating the copy leaves the original intact.
	head.columns[1].Floats[0] = 99
	orig, _ := table.Column("CH1")
	assert.Equal(t, 5.0, orig.Floats[0])
}

func TestColumnMissingValues(t *testing.T) {
	numeric := NewNumericColumn("CH1", []float64{1.0, math.NaN()})
	assert.False(t, numeric.IsMissing(0))
	assert.True(t, numeric.IsMissing(1))

	stamps := NewTimestampColumn("Time", []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		{},
	})
	assert.False(t, stamps.IsMissing(0))
	assert.True(t, stamps.IsMissing(1))
	assert.Equal(t, 2, stamps.Len())

	texts := NewTextColumn("Label", []string{"a", ""})
	assert.False(t, texts.IsMissing(0))
	assert.True(t, texts.IsMissing(1))
}

func TestColumnKindString(t *testing.T) {
	assert.Equal(t, "numeric", KindNumeric.String())
	assert.Equal(t, "timestamp", KindTimestamp.String())
	assert.Equal(t, "text", KindText.String())
}

func TestMetadataHelpers(t *testing.T) {
	meta := &Metadata{
		Filename:  "scan.xlsx",
		Equipment: "Keysight 34970A",
		Channels:  []string{"101 (VDC)"},
		Units:     map[string]string{"101 (VDC)": "VDC"},
	}

	unit, ok := meta.Unit("101 (VDC)")
	require.True(t, ok)
	assert.Equal(t, "VDC", unit)

	_, ok = meta.Unit("102 (VDC)")
	assert.False(t, ok)

	assert.False(t, meta.HasAcquisitionTime())
	assert.False(t, meta.HasTimeColumn())

	meta.AcquisitionTime = time.Date(2025, 11, 25, 17, 37, 51, 0, time.UTC)
	meta.TimeColumn = "Time"
	assert.True(t, meta.HasAcquisitionTime())
	assert.True(t, meta.HasTimeColumn())
}
