// Package sheet abstracts the tabular data source rules are evaluated
// against and provides column addressing and deep-link helpers.
package sheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sheetwatch/sheetwatch/pkg/models"
)

// ErrSheetNotFound indicates the configured sheet does not exist in the
// workbook. It aborts the run for that rule.
var ErrSheetNotFound = errors.New("sheet not found")

// Source is the read-only view of a tabular data source. Implementations
// are injected into the runner so the core stays testable without a real
// workbook.
type Source interface {
	// ColumnValues returns the raw cell values of one column over the
	// contiguous row range [startRow, endRow]. Index i corresponds to row
	// startRow+i.
	ColumnValues(sheetName, column string, startRow, endRow int) ([]string, error)
	// HeaderRow returns the display values of one full row, first column first.
	HeaderRow(sheetName string, row int) ([]string, error)
	// LastRow returns the last row index that contains data, 0 for an empty sheet.
	LastRow(sheetName string) (int, error)
	// Info resolves the sheet's display title and canonical URL.
	Info(sheetName string) (models.SheetInfo, error)
	Close() error
}

// RowURL builds a deep link to one cell of the sheet. Returns "" when no
// sheet URL is available.
func RowURL(sheetURL, column string, rowNumber int) string {
	if sheetURL == "" {
		return ""
	}
	separator := "#"
	if strings.Contains(sheetURL, "#") {
		separator = "&"
	}
	return fmt.Sprintf("%s%srange=%s%d", sheetURL, separator, column, rowNumber)
}

// ColumnLabels reads the header row immediately above startRow and maps each
// column letter to its header text. Columns without a header fall back to
// "<letter>列". A sheet whose header row cannot be read yields an empty map;
// renderers apply their own fallback labels.
func ColumnLabels(src Source, sheetName string, startRow int) (map[string]string, error) {
	headerRow := startRow - 1
	if headerRow < 1 {
		headerRow = 1
	}
	headers, err := src.HeaderRow(sheetName, headerRow)
	if err != nil {
		return map[string]string{}, fmt.Errorf("failed to read header row %d: %w", headerRow, err)
	}
	labels := make(map[string]string, len(headers))
	for i, header := range headers {
		letter := IndexToColumn(i + 1)
		if header == "" {
			header = letter + "列"
		}
		labels[letter] = header
	}
	return labels, nil
}
