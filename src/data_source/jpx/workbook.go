package jpx

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	biffMagic = []byte{0xD0, 0xCF, 0x11, 0xE0} // OLE2 compound document (.xls)
	zipMagic  = []byte{'P', 'K'}               // OOXML package (.xlsx)
)

// ReadFirstSheet decodes the first worksheet of an .xls or .xlsx payload into
// rows of cell text. The format is detected from the leading bytes.
func ReadFirstSheet(data []byte) ([][]string, error) {
	switch {
	case bytes.HasPrefix(data, biffMagic):
		return readXLS(data)
	case bytes.HasPrefix(data, zipMagic):
		return readXLSX(data)
	}
	return nil, fmt.Errorf("unrecognized spreadsheet format (%d bytes)", len(data))
}

// -----------------------------------------------------------------------------

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("xls file has no workbook stream")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("xls workbook has no sheets")
	}

	// Without cell styles the library prints numbers as stored. With them it
	// renders any user-defined or date format as a date, so code 1301 under
	// format "0000" would come back as an RFC3339 timestamp.
	wb.Xfs = nil

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	width := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		if row.LastCol() > width {
			width = row.LastCol()
		}
		cells := make([]string, width)
		for c := range cells {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// sheetRow returns nil for rows absent from the file; the library panics on them.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// -----------------------------------------------------------------------------

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
