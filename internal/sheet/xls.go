package sheet

import (
	"bytes"

	"github.com/extrame/xls"
	"github.com/rotisserie/eris"
)

// readXLS returns every row of the first sheet of a legacy BIFF workbook.
// Cells keep their column position so rows line up with the header.
func readXLS(buf []byte) (rows [][]string, err error) {
	// The BIFF decoder panics on truncated or corrupt streams.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, eris.Errorf("xls: decode workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(buf), "utf-8")
	if err != nil {
		return nil, eris.Wrap(err, "xls: open workbook")
	}
	if wb.NumSheets() == 0 {
		return nil, eris.New("xls: workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, eris.New("xls: read first sheet")
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := range cells {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}
	return trimTrailingBlankRows(rows), nil
}
