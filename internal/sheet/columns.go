package sheet

// ColumnToIndex converts a spreadsheet column label to its 1-based index
// (A=1, Z=26, AA=27). The label is treated as a bijective base-26 numeral;
// the caller guarantees ASCII uppercase letters.
func ColumnToIndex(column string) int {
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A') + 1
	}
	return index
}

// IndexToColumn converts a 1-based column index back to its letter form.
// Inverse of ColumnToIndex for every index >= 1.
func IndexToColumn(index int) string {
	letters := ""
	for index > 0 {
		remainder := (index - 1) % 26
		letters = string(rune('A'+remainder)) + letters
		index = (index - 1) / 26
	}
	return letters
}
