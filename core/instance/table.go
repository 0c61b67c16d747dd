package instance

// Table is a 2-D matrix with nullable entries. A nil entry marks an
// unsupported transition or an undefined span.
type Table [][]*int

// NewTable allocates a rows x cols table filled with nil entries.
func NewTable(rows, cols int) Table {
	t := make(Table, rows)
	for i := range t {
		t[i] = make([]*int, cols)
	}
	return t
}

// At returns the value at [i][j]. The second result is false when the entry
// is nil or out of range.
func (t Table) At(i, j int) (int, bool) {
	if i < 0 || i >= len(t) {
		return 0, false
	}
	row := t[i]
	if j < 0 || j >= len(row) || row[j] == nil {
		return 0, false
	}
	return *row[j], true
}

// Set stores v at [i][j].
func (t Table) Set(i, j, v int) {
	t[i][j] = &v
}

// LastCol returns the index of the last column of row i, or -1.
func (t Table) LastCol(i int) int {
	if i < 0 || i >= len(t) {
		return -1
	}
	return len(t[i]) - 1
}

func intPtr(v int) *int { return &v }
