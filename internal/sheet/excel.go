package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sheetwatch/sheetwatch/pkg/models"
)

// ExcelSource reads rule data from an xlsx workbook via excelize.
type ExcelSource struct {
	file *excelize.File
	// baseURL is the optional externally reachable URL of the workbook,
	// used to build sheet and row deep links.
	baseURL string
}

// OpenExcel opens the workbook at path. baseURL may be empty, in which case
// notifications carry no links.
func OpenExcel(path, baseURL string) (*ExcelSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %q: %w", path, err)
	}
	return &ExcelSource{file: f, baseURL: baseURL}, nil
}

// NewExcelSource wraps an already opened excelize file. Used by tests that
// build workbooks in memory.
func NewExcelSource(f *excelize.File, baseURL string) *ExcelSource {
	return &ExcelSource{file: f, baseURL: baseURL}
}

func (s *ExcelSource) Close() error {
	return s.file.Close()
}

func (s *ExcelSource) sheetIndex(sheetName string) (int, error) {
	idx, err := s.file.GetSheetIndex(sheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve sheet %q: %w", sheetName, err)
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
	}
	return idx, nil
}

// ColumnValues reads one column over [startRow, endRow]. Cells past the end
// of the stored data come back as empty strings so the vector is always
// index-aligned with the requested range.
func (s *ExcelSource) ColumnValues(sheetName, column string, startRow, endRow int) ([]string, error) {
	if _, err := s.sheetIndex(sheetName); err != nil {
		return nil, err
	}
	values := make([]string, 0, endRow-startRow+1)
	for row := startRow; row <= endRow; row++ {
		cell := fmt.Sprintf("%s%d", column, row)
		value, err := s.file.GetCellValue(sheetName, cell)
		if err != nil {
			return nil, fmt.Errorf("failed to read cell %s!%s: %w", sheetName, cell, err)
		}
		values = append(values, value)
	}
	return values, nil
}

// HeaderRow returns the display values of the given 1-based row.
func (s *ExcelSource) HeaderRow(sheetName string, row int) ([]string, error) {
	if _, err := s.sheetIndex(sheetName); err != nil {
		return nil, err
	}
	rows, err := s.file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", sheetName, err)
	}
	if row < 1 || row > len(rows) {
		return nil, nil
	}
	return rows[row-1], nil
}

// LastRow returns the index of the last row holding data.
func (s *ExcelSource) LastRow(sheetName string) (int, error) {
	if _, err := s.sheetIndex(sheetName); err != nil {
		return 0, err
	}
	rows, err := s.file.GetRows(sheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to read rows of %q: %w", sheetName, err)
	}
	return len(rows), nil
}

// Info resolves the sheet title and its deep-link URL ("<base>#gid=<index>",
// mirroring how hosted spreadsheets address individual sheets).
func (s *ExcelSource) Info(sheetName string) (models.SheetInfo, error) {
	idx, err := s.sheetIndex(sheetName)
	if err != nil {
		return models.SheetInfo{}, err
	}
	info := models.SheetInfo{Title: sheetName}
	if s.baseURL != "" {
		info.URL = fmt.Sprintf("%s#gid=%d", s.baseURL, idx)
	}
	return info, nil
}
