package dataset

import (
	"fmt"
	"io"
	"strconv"

	"casequery-backend/models"
	"casequery-backend/parsing"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses the first worksheet of an Excel workbook.
// Numeric cells in date columns are Excel serial dates; numeric cells in money columns are amounts.
// Both are rendered back into the textual forms the CSV exports use.
func ReadXLSX(source string, r io.Reader) (*models.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySource
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}

	kinds := make([]columnKind, len(rows[0]))
	for i, h := range rows[0] {
		if name, ok := canonicalColumn(h); ok {
			kinds[i] = columnKinds[name]
		}
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	for row := 1; row < len(rows); row++ {
		for c, raw := range rows[row] {
			if c >= len(kinds) || kinds[c] == kindText {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(c+1, row+1)
			if err != nil {
				continue
			}
			if typ, err := f.GetCellType(sheet, cellName); err == nil && isTextCell(typ) {
				continue
			}
			rows[row][c] = numericCell(kinds[c], v, date1904, raw)
		}
	}

	return FromRows(source, rows[0], rows[1:])
}

func isTextCell(typ excelize.CellType) bool {
	return typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString
}

func numericCell(kind columnKind, v float64, date1904 bool, raw string) string {
	switch kind {
	case kindDate:
		t, err := excelize.ExcelDateToTime(v, date1904)
		if err != nil {
			return raw
		}
		return parsing.FormatDate(t)
	case kindMoney:
		return parsing.FormatBRL(v)
	}
	return raw
}
