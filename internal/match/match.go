// Package match implements the two row-matching strategies: date-threshold
// and all-columns-equal. Matchers are pure: they consume already-fetched,
// index-aligned column vectors and produce normalized row records.
package match

import (
	"log/slog"
	"time"

	"github.com/sheetwatch/sheetwatch/internal/sheet"
	"github.com/sheetwatch/sheetwatch/internal/timeutil"
	"github.com/sheetwatch/sheetwatch/pkg/models"
)

// Matcher decides which rows match and assembles one RowData per match.
// Vectors are keyed by column letter; index i of every vector corresponds to
// row startRow+i.
type Matcher interface {
	Match(vectors map[string][]string, startRow int) []models.RowData
	// PredicateColumns lists the columns the strategy evaluates, so the
	// caller knows what to fetch besides the notification columns.
	PredicateColumns() []string
}

// DateMatcher matches rows whose date column is exactly DaysBefore days
// after Today. Invalid or empty date cells are skipped, never an error.
type DateMatcher struct {
	Column        string
	DaysBefore    int
	Today         time.Time
	Timezone      string
	NotifyColumns []string
	SheetURL      string
	Logger        *slog.Logger
}

func (m DateMatcher) PredicateColumns() []string {
	return []string{m.Column}
}

func (m DateMatcher) Match(vectors map[string][]string, startRow int) []models.RowData {
	loc, err := timeutil.Location(m.Timezone)
	if err != nil {
		loc = time.UTC
	}

	var matched []models.RowData
	for i, raw := range vectors[m.Column] {
		date, ok := timeutil.ParseDate(raw, loc)
		if !ok {
			continue
		}
		if timeutil.DaysBetween(m.Today, date) != m.DaysBefore {
			continue
		}
		rowNumber := startRow + i
		matched = append(matched, models.RowData{
			RowNumber: rowNumber,
			Date:      timeutil.Format(date, m.Timezone, m.Logger),
			Columns:   extractColumns(vectors, m.NotifyColumns, i),
			RowURL:    sheet.RowURL(m.SheetURL, m.Column, rowNumber),
		})
	}
	return matched
}

// StatusMatcher matches rows where every (column, expected) pair holds after
// string coercion. Comparison is case-sensitive and exact; an empty cell
// coerces to "". The first match column anchors the row deep link.
type StatusMatcher struct {
	Columns       []string
	Values        []string
	NotifyColumns []string
	SheetURL      string
}

func (m StatusMatcher) PredicateColumns() []string {
	return m.Columns
}

func (m StatusMatcher) Match(vectors map[string][]string, startRow int) []models.RowData {
	if len(m.Columns) == 0 {
		return nil
	}

	var matched []models.RowData
	for i := range vectors[m.Columns[0]] {
		allMatch := true
		for c, column := range m.Columns {
			value := ""
			if vec := vectors[column]; i < len(vec) {
				value = vec[i]
			}
			if value != m.Values[c] {
				allMatch = false
				break
			}
		}
		if !allMatch {
			continue
		}
		rowNumber := startRow + i
		matched = append(matched, models.RowData{
			RowNumber: rowNumber,
			Columns:   extractColumns(vectors, m.NotifyColumns, i),
			RowURL:    sheet.RowURL(m.SheetURL, m.Columns[0], rowNumber),
		})
	}
	return matched
}

// extractColumns pulls the notification-column values for vector index i,
// preserving the configured column order. Missing cells become "".
func extractColumns(vectors map[string][]string, columns []string, i int) []models.ColumnValue {
	values := make([]models.ColumnValue, 0, len(columns))
	for _, column := range columns {
		value := ""
		if vec := vectors[column]; i < len(vec) {
			value = vec[i]
		}
		values = append(values, models.ColumnValue{Letter: column, Value: value})
	}
	return values
}
