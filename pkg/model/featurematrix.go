package model

// FeatureMatrix is an N x D array of f64: row i is the feature vector of
// the vertex with dense index i. All rows share D, fixed by the first
// non-scalar observation (or 1, for a purely scalar column).
type FeatureMatrix struct {
	Rows int
	Cols int
	// Data is row-major: Data[i*Cols : i*Cols+Cols] is row i.
	Data []float64
}

// NewFeatureMatrix allocates a zero-filled matrix of the given shape.
func NewFeatureMatrix(rows, cols int) *FeatureMatrix {
	return &FeatureMatrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// Row returns a view of row i. Mutating it mutates the matrix.
func (m *FeatureMatrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : i*m.Cols+m.Cols]
}

// SetRow copies src into row i, zero-filling any shortfall and truncating
// any excess. Used when a document's field produced fewer or no values.
func (m *FeatureMatrix) SetRow(i int, src []float64) {
	dst := m.Row(i)
	n := copy(dst, src)
	for j := n; j < len(dst); j++ {
		dst[j] = 0.0
	}
}

// ColumnBuffer accumulates one field's values across a shard before being
// concatenated, in shard order, into the collection-wide FeatureMatrix by
// the orchestrator (C8).
type ColumnBuffer struct {
	Field string
	// Cols is fixed on first non-scalar observation; 1 for scalar-only
	// columns until a wider row is seen.
	Cols int
	// Rows is row-major, one slice of length Cols per document seen so far.
	Rows [][]float64
}

// NewColumnBuffer allocates a column buffer pre-sized to the shard's
// expected vertex count.
func NewColumnBuffer(field string, expectedRows int) *ColumnBuffer {
	return &ColumnBuffer{
		Field: field,
		Cols:  1,
		Rows:  make([][]float64, 0, expectedRows),
	}
}

// AppendScalar appends a single f64 value, zero-filling out to Cols if a
// wider row was already observed for this field.
func (b *ColumnBuffer) AppendScalar(v float64) {
	row := make([]float64, b.Cols)
	row[0] = v
	b.Rows = append(b.Rows, row)
}

// AppendMissing appends a zero row of the current width.
func (b *ColumnBuffer) AppendMissing() {
	b.Rows = append(b.Rows, make([]float64, b.Cols))
}

// AppendVector appends a packed row of D values. On the first such call
// Cols is fixed to len(values); subsequent calls with a different length
// are the caller's responsibility to reject as ShapeMismatch before
// calling AppendVector.
func (b *ColumnBuffer) AppendVector(values []float64) {
	if len(b.Rows) == 0 || b.Cols == 1 {
		b.Cols = len(values)
		// Widen any scalar rows already appended.
		for i, r := range b.Rows {
			widened := make([]float64, b.Cols)
			copy(widened, r)
			b.Rows[i] = widened
		}
	}
	row := make([]float64, b.Cols)
	copy(row, values)
	b.Rows = append(b.Rows, row)
}

// ToMatrix flattens the buffer's rows into a row-major FeatureMatrix.
func (b *ColumnBuffer) ToMatrix() *FeatureMatrix {
	m := NewFeatureMatrix(len(b.Rows), b.Cols)
	for i, r := range b.Rows {
		m.SetRow(i, r)
	}
	return m
}
