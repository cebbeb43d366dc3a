package formats

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// scanSheetRows returns up to limit rows of the named sheet using the
// streaming row iterator, so Detect never pulls a whole workbook into
// memory.
func scanSheetRows(f *excelize.File, sheet string, limit int) ([][]string, error) {
	iter, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var rows [][]string
	for iter.Next() && len(rows) < limit {
		cols, err := iter.Columns()
		if err != nil {
			return nil, err
		}
		rows = append(rows, cols)
	}
	return rows, iter.Error()
}

// scanFirstSheet is scanSheetRows for the workbook's first sheet.
func scanFirstSheet(f *excelize.File, limit int) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, excelize.ErrSheetNotExist{SheetName: ""}
	}
	return scanSheetRows(f, sheets[0], limit)
}

// rowText joins a row's cells into one lowercase string for marker
// search.
func rowText(row []string) string {
	return strings.ToLower(strings.Join(row, " "))
}

// rowsText joins several rows for marker search.
func rowsText(rows [][]string) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = rowText(row)
	}
	return strings.Join(parts, " ")
}

// workbookContains reports whether any of the markers occurs within the
// first scanRows rows of the workbook's first sheet. Open or read
// failures yield false; this backs Detect, which must be total.
func workbookContains(path string, scanRows int, markers []string) bool {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return false
	}
	defer f.Close()

	rows, err := scanFirstSheet(f, scanRows)
	if err != nil {
		return false
	}
	return containsAny(rowsText(rows), markers)
}

// rawTableFromRows converts sheet rows into a raw data block with the
// row at headerRow as the header.
func rawTableFromRows(rows [][]string, headerRow int) *rawTable {
	headers := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		headers[i] = strings.TrimSpace(h)
	}
	return &rawTable{headers: headers, rows: rows[headerRow+1:]}
}
