package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"labdata/formats"
	"labdata/internal/config"
	"labdata/pkg/contracts/domain"
)

func writeScanCSV(t *testing.T) string {
	t.Helper()
	content := "Time,101 (VDC),102 (VDC),201 (VDC)\n" +
		"0.0,1.0,2.0,3.0\n" +
		"0.1,1.1,2.1,3.1\n" +
		"0.2,1.2,2.2,3.2\n"
	path := filepath.Join(t.TempDir(), "scan.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeBenchLinkWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "benchlink.xlsx")

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Instrument:", "34970A"},
		{"Scan", "Time", "101 (VDC)"},
		{"1", "25/11/2025 17:37:51:442", "1.23"},
		{"2", "25/11/2025 17:37:52:442", "1.25"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestOpenAutoDetect(t *testing.T) {
	l, err := Open(writeBenchLinkWorkbook(t))
	require.NoError(t, err)

	assert.Equal(t, "keysight", l.Format())
	assert.Equal(t, "Keysight 34970A", l.Metadata().Equipment)
	assert.Equal(t, 2, l.Table().Len())
}

func TestOpenFallsBackToGenericCSV(t *testing.T) {
	l, err := Open(writeScanCSV(t))
	require.NoError(t, err)

	assert.Equal(t, "csv", l.Format())
	assert.Equal(t, "Generic CSV", l.Metadata().Equipment)
	assert.Equal(t, []string{"101 (VDC)", "102 (VDC)", "201 (VDC)"}, l.Columns())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "file not found")
}

func TestOpenDetectionFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mystery.dat")
	require.NoError(t, os.WriteFile(path, []byte("opaque payload"), 0o644))

	_, err := Open(path)
	require.Error(t, err)

	var detErr *formats.DetectionError
	require.ErrorAs(t, err, &detErr)
	assert.Equal(t, path, detErr.Path)
	// Every registered format was attempted.
	assert.Equal(t, formats.NewDefaultRegistry(nil).Names(), detErr.Attempted)
}

func TestOpenExplicitFormat(t *testing.T) {
	l, err := Open(writeBenchLinkWorkbook(t), WithFormat("keysight"))
	require.NoError(t, err)
	assert.Equal(t, "keysight", l.Format())

	// Aliases resolve to the canonical handler.
	l, err = Open(writeBenchLinkWorkbook(t), WithFormat("keysight_34970a"))
	require.NoError(t, err)
	assert.Equal(t, "keysight", l.Format())
}

func TestOpenExplicitFormatNeverFallsBack(t *testing.T) {
	// A CSV forced through the workbook handler fails with that
	// handler's error instead of silently auto-detecting.
	_, err := Open(writeScanCSV(t), WithFormat("keysight"))
	require.Error(t, err)

	var parseErr *formats.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "keysight", parseErr.Format)
}

func TestOpenUnknownFormat(t *testing.T) {
	_, err := Open(writeScanCSV(t), WithFormat("spectrum"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available formats")
}

func TestOpenWithInjectedRegistry(t *testing.T) {
	reg := formats.NewRegistry()
	require.NoError(t, reg.Register(formats.NewGenericCSVHandler(nil)))

	l, err := Open(writeScanCSV(t), WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, "csv", l.Format())
}

func TestOpenWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Parsing.HeaderSearchRows = 5

	l, err := Open(writeScanCSV(t), WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, "csv", l.Format())
}

func TestLoaderAccessors(t *testing.T) {
	path := writeScanCSV(t)
	l, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, path, l.Path())
	assert.Equal(t, "scan.csv", l.Metadata().Filename)

	axis, ok := l.Time()
	require.True(t, ok)
	assert.Equal(t, "Time", axis.Name)

	head := l.Head(2)
	assert.Equal(t, 2, head.Len())

	col, err := l.Column("101 (VDC)")
	require.NoError(t, err)
	assert.Equal(t, domain.KindNumeric, col.Kind)
	assert.Equal(t, []float64{1.0, 1.1, 1.2}, col.Floats)

	assert.Contains(t, l.String(), `file="scan.csv"`)
	assert.Contains(t, l.String(), `format="csv"`)
}

func TestLoaderColumnNotFound(t *testing.T) {
	l, err := Open(writeScanCSV(t))
	require.NoError(t, err)

	_, err = l.Column("999 (VDC)")
	require.Error(t, err)

	var chErr *ChannelError
	require.ErrorAs(t, err, &chErr)
	assert.Equal(t, "999 (VDC)", chErr.Name)
	assert.Contains(t, chErr.Available, "101 (VDC)")
	assert.Contains(t, err.Error(), "available channels")
}

func TestGetChannel(t *testing.T) {
	l, err := Open(writeScanCSV(t))
	require.NoError(t, err)

	// Anchored prefix match, preserving table order.
	matches, err := l.GetChannel("^10")
	require.NoError(t, err)
	assert.Equal(t, []string{"101 (VDC)", "102 (VDC)"}, matches)

	// Case-insensitive substring search.
	matches, err = l.GetChannel("vdc")
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	// No matches is a valid, empty result.
	matches, err = l.GetChannel("^999")
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = l.GetChannel("(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid channel pattern")
}

func TestOpenLoadsMetadataTimestamp(t *testing.T) {
	content := "HIOKI LR8400\n" +
		"日付 2024-03-15\n" +
		"Time,CH1 (V)\n" +
		"10:00:00,1.0\n" +
		"10:00:01,1.1\n"
	path := filepath.Join(t.TempDir(), "lr8400.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "hioki", l.Format())
	assert.True(t, l.Metadata().HasAcquisitionTime())
	assert.True(t, l.Metadata().AcquisitionTime.Equal(
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestOpenFullyFailsOrSucceeds(t *testing.T) {
	// A claimed file whose data block is broken yields no partial Loader.
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Instrument:"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	l, err := Open(path)
	require.Error(t, err)
	assert.Nil(t, l)
	assert.True(t, errors.As(err, new(*formats.ParseError)))
}
