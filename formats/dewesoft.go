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

// DewesoftHandler parses Dewesoft datalogger workbook exports. The
// workbook carries a metadata sheet whose name contains "(root)" (and
// encodes the acquisition time as YYYYMMDD_HHMMSS) plus a "Data" sheet
// with PREFIX_NN channel columns and no explicit time axis.
type DewesoftHandler struct {
	cfg *config.Config
}

// NewDewesoftHandler creates the Dewesoft format handler
func NewDewesoftHandler(cfg *config.Config) *DewesoftHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &DewesoftHandler{cfg: cfg}
}

// Name implements Handler
func (h *DewesoftHandler) Name() string { return "dewesoft" }

// Description implements Handler
func (h *DewesoftHandler) Description() string {
	return "Dewesoft datalogger workbook exports"
}

var dewesoftSheetTime = regexp.MustCompile(`(\d{8}_\d{6})`)

var dewesoftPrefix = regexp.MustCompile(`^([A-Za-z0-9]+)_\d+`)

// Detect looks for the Dewesoft sheet layout: a "Data" sheet next to a
// "(root)" metadata sheet.
func (h *DewesoftHandler) Detect(path string) bool {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return false
	}
	defer f.Close()

	hasData := false
	hasRoot := false
	for _, name := range f.GetSheetList() {
		if name == "Data" {
			hasData = true
		}
		if strings.Contains(name, "(root)") {
			hasRoot = true
		}
	}
	return hasData && hasRoot
}

// Parse implements Handler
func (h *DewesoftHandler) Parse(path string) (*domain.Table, *domain.Metadata, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to open workbook", err)
	}
	defer f.Close()

	extra := make(map[string]string)
	var acquired time.Time

	// Metadata lives in the sheet whose name carries the recording
	// timestamp.
	for _, sheet := range f.GetSheetList() {
		if !strings.Contains(sheet, "(root)") {
			continue
		}
		if m := dewesoftSheetTime.FindString(sheet); m != "" {
			if t, err := time.Parse("20060102_150405", m); err == nil {
				acquired = t
			} else {
				extra["recording_id"] = m
			}
		}
		if rows, err := scanSheetRows(f, sheet, 1); err == nil && len(rows) > 0 && len(rows[0]) > 0 {
			extra["root_name"] = rows[0][0]
		}
		break
	}

	rows, err := f.GetRows("Data")
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "workbook has no Data sheet", err)
	}
	if len(rows) < 2 {
		return nil, nil, newParseError(h.Name(), path, "Data sheet holds no measurement rows", nil)
	}

	raw := rawTableFromRows(rows, 0)
	if m := dewesoftPrefix.FindStringSubmatch(raw.headers[0]); m != nil {
		extra["channel_prefix"] = m[1]
	}

	// Dewesoft exports carry no time axis; synthesize a sample counter.
	columns := append(
		[]*domain.Column{indexColumn("Sample", len(raw.rows))},
		normalizeColumns(raw, "", h.cfg)...)
	table, err := domain.NewTable(columns, "Sample")
	if err != nil {
		return nil, nil, newParseError(h.Name(), path, "failed to assemble table", err)
	}

	channels := table.DataColumnNames()
	units := make(map[string]string, len(channels))
	for _, ch := range channels {
		// Dewesoft voltage loggers label channels without units.
		units[ch] = "V"
	}

	slog.Debug("parsed dewesoft export",
		slog.String("path", path),
		slog.Int("channels", len(channels)),
		slog.Int("samples", table.Len()))

	meta := &domain.Metadata{
		Filename:        filepath.Base(path),
		Equipment:       "Dewesoft Datalogger",
		AcquisitionTime: acquired,
		Channels:        channels,
		TimeColumn:      "Sample",
		Units:           units,
		Extra:           extra,
	}
	return table, meta, nil
}
