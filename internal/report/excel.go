package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelBytes renders a header plus data rows as a single-sheet workbook.
// Sheet name and column widths are cosmetic. Returns ErrNoData when there
// are no data rows.
func ExcelBytes(sheet string, header []string, rows [][]string) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	defaultSheet := f.GetSheetName(0)
	if sheet != "" && sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, err
		}
	} else {
		sheet = defaultSheet
	}

	if err := setRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	// Readable default column width; cosmetic only.
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err == nil {
		_ = f.SetColWidth(sheet, "A", lastCol, 18)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, line int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}
