package formats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labdata/pkg/contracts/domain"
)

const flukeExport = "Instrument: Fluke 2680A Hydra Series\n" +
	"Date: 2024-02-10\n" +
	"Time,Channel 101 (C),Channel 102 (C)\n" +
	"10:00:00,21.5,22.1\n" +
	"10:00:10,21.6,22.2\n" +
	"10:00:20,21.7,22.3\n"

func TestFlukeDetect(t *testing.T) {
	h := NewFlukeHandler(nil)

	assert.True(t, h.Detect(writeTempFile(t, "hydra.csv", []byte(flukeExport))))
	assert.True(t, h.Detect(writeTempFile(t, "dewk.txt", []byte("1620A DewK Thermo-Hygrometer\nTime,T (C),RH (%)\n10:00:00,21,45\n"))))
	assert.False(t, h.Detect(writeTempFile(t, "other.csv", []byte("Time,CH1\n0,1\n"))))
}

func TestFlukeParse(t *testing.T) {
	path := writeTempFile(t, "hydra.csv", []byte(flukeExport))

	h := NewFlukeHandler(nil)
	table, meta, err := h.Parse(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Time", "Channel 101 (C)", "Channel 102 (C)"}, table.ColumnNames())
	assert.Equal(t, 3, table.Len())

	axis, ok := table.TimeColumn()
	require.True(t, ok)
	assert.Equal(t, domain.KindTimestamp, axis.Kind)

	assert.Equal(t, "Fluke Hydra Datalogger", meta.Equipment)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), meta.AcquisitionTime)
	assert.Equal(t, []string{"Channel 101 (C)", "Channel 102 (C)"}, meta.Channels)
	assert.Equal(t, "Fluke", meta.Extra["manufacturer"])
	assert.Equal(t, "2680A", meta.Extra["model"])

	unit, ok := meta.Unit("Channel 101 (C)")
	require.True(t, ok)
	assert.Equal(t, "C", unit)

	col, ok := table.Column("Channel 102 (C)")
	require.True(t, ok)
	assert.InDelta(t, 22.2, col.Floats[1], 1e-9)
}
