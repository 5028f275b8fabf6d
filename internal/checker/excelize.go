package checker

import (
	"bytes"
	"errors"

	"github.com/xuri/excelize/v2"
)

// ExcelizeReader reads xlsx workbooks with excelize. Only the first sheet
// is inspected: header from row 1, row count excluding the header.
type ExcelizeReader struct{}

// NewExcelizeReader constructs the excelize-backed sheet reader.
func NewExcelizeReader() *ExcelizeReader {
	return &ExcelizeReader{}
}

// ReadFirstSheet returns the header row and data row count of the first
// sheet in the workbook.
func (ExcelizeReader) ReadFirstSheet(content []byte) ([]string, int, error) {
	book, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, 0, err
	}
	defer book.Close()

	names := book.GetSheetList()
	if len(names) == 0 {
		return nil, 0, errors.New("workbook has no sheets")
	}

	rows, err := book.GetRows(names[0])
	if err != nil {
		return nil, 0, err
	}

	var header []string
	rowCount := 0
	if len(rows) > 0 {
		header = rows[0]
		rowCount = len(rows) - 1
	}
	return header, rowCount, nil
}

var _ SheetReader = (*ExcelizeReader)(nil)
