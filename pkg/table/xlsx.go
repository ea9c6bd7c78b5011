package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX streams up to limit rows of the first sheet, or all of them when
// limit < 0.
func readXLSX(path string, limit int) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records [][]string
	for (limit < 0 || len(records) < limit) && rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		records = append(records, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	return records, nil
}
