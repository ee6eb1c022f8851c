package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetwatch/sheetwatch/pkg/models"
)

func tokyoDay(y int, m time.Month, d int) time.Time {
	loc, _ := time.LoadLocation("Asia/Tokyo")
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestDateMatcher(t *testing.T) {
	matcher := DateMatcher{
		Column:        "L",
		DaysBefore:    3,
		Today:         tokyoDay(2024, 1, 10),
		Timezone:      "Asia/Tokyo",
		NotifyColumns: []string{"D"},
	}

	tests := []struct {
		name    string
		dates   []string
		matched []int
	}{
		{"exact threshold matches", []string{"2024/01/13"}, []int{2}},
		{"one day early does not", []string{"2024/01/12"}, nil},
		{"one day late does not", []string{"2024/01/14"}, nil},
		{"invalid cells are skipped", []string{"", "not a date", "2024/01/13"}, []int{4}},
		{"multiple matches", []string{"2024/01/13", "2024/01/12", "2024/01/13"}, []int{2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vectors := map[string][]string{
				"L": tt.dates,
				"D": make([]string, len(tt.dates)),
			}
			rows := matcher.Match(vectors, 2)
			var numbers []int
			for _, row := range rows {
				numbers = append(numbers, row.RowNumber)
			}
			assert.Equal(t, tt.matched, numbers)
		})
	}
}

func TestDateMatcherRowData(t *testing.T) {
	matcher := DateMatcher{
		Column:        "L",
		DaysBefore:    1,
		Today:         tokyoDay(2024, 3, 1),
		Timezone:      "Asia/Tokyo",
		NotifyColumns: []string{"D"},
		SheetURL:      "https://example.com/wb#gid=0",
	}
	vectors := map[string][]string{
		"L": {"2024/03/02"},
		"D": {"Alice"},
	}

	rows := matcher.Match(vectors, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, models.RowData{
		RowNumber: 2,
		Date:      "2024/03/02",
		Columns:   []models.ColumnValue{{Letter: "D", Value: "Alice"}},
		RowURL:    "https://example.com/wb#gid=0&range=L2",
	}, rows[0])
}

func TestStatusMatcher(t *testing.T) {
	matcher := StatusMatcher{
		Columns:       []string{"B", "C"},
		Values:        []string{"未完了", "重要"},
		NotifyColumns: []string{"D"},
	}

	vectors := map[string][]string{
		"B": {"未完了", "未完了", "完了", "未完了"},
		"C": {"重要", "", "重要", "重要"},
		"D": {"Alice", "Bob", "Carol", ""},
	}

	rows := matcher.Match(vectors, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].RowNumber)
	assert.Equal(t, 5, rows[1].RowNumber)
	// Status rules carry no date; the first match column anchors the link.
	assert.Empty(t, rows[0].Date)
	assert.Equal(t, []models.ColumnValue{{Letter: "D", Value: ""}}, rows[1].Columns)
}

func TestStatusMatcherOrderIndependent(t *testing.T) {
	vectors := map[string][]string{
		"B": {"未完了", "完了"},
		"C": {"重要", "重要"},
		"D": {"x", "y"},
	}

	forward := StatusMatcher{Columns: []string{"B", "C"}, Values: []string{"未完了", "重要"}, NotifyColumns: []string{"D"}}
	reversed := StatusMatcher{Columns: []string{"C", "B"}, Values: []string{"重要", "未完了"}, NotifyColumns: []string{"D"}}

	a := forward.Match(vectors, 2)
	b := reversed.Match(vectors, 2)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].RowNumber, b[0].RowNumber)
	assert.Equal(t, a[0].Columns, b[0].Columns)
}

func TestRowNumberReconstruction(t *testing.T) {
	matcher := StatusMatcher{
		Columns: []string{"B"},
		Values:  []string{"x"},
	}
	vectors := map[string][]string{
		"B": {"", "", "x"},
	}

	rows := matcher.Match(vectors, 5)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].RowNumber)
}

func TestMatchIdempotent(t *testing.T) {
	matcher := DateMatcher{
		Column:        "L",
		DaysBefore:    3,
		Today:         tokyoDay(2024, 1, 10),
		Timezone:      "Asia/Tokyo",
		NotifyColumns: []string{"D", "E"},
	}
	vectors := map[string][]string{
		"L": {"2024/01/13", "", "2024/01/13"},
		"D": {"a", "b", "c"},
		"E": {"1", "2", "3"},
	}

	first := matcher.Match(vectors, 2)
	second := matcher.Match(vectors, 2)
	assert.Equal(t, first, second)
}

func TestNotifyColumnOrderPreserved(t *testing.T) {
	matcher := StatusMatcher{
		Columns:       []string{"B"},
		Values:        []string{"x"},
		NotifyColumns: []string{"F", "D", "E"},
	}
	vectors := map[string][]string{
		"B": {"x"},
		"D": {"d"},
		"E": {"e"},
		"F": {"f"},
	}

	rows := matcher.Match(vectors, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, []models.ColumnValue{
		{Letter: "F", Value: "f"},
		{Letter: "D", Value: "d"},
		{Letter: "E", Value: "e"},
	}, rows[0].Columns)
}
