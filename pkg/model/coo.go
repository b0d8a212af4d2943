package model

// CollectionTriple keys a COOMap entry: the edge collection and the
// vertex collections its endpoints belong to.
type CollectionTriple struct {
	EdgeCollection string
	SrcCollection  string
	DstCollection  string
}

// COOEntry is one (edge-collection, src-collection, dst-collection)
// bucket's sparse edge list: a 2 x M matrix of endpoint indices, plus the
// optional per-edge multiplicity index and numeric attribute vectors.
type COOEntry struct {
	// Src and Dst are parallel, length-M endpoint index arrays; Src[i],
	// Dst[i] is column i of the 2 x M COO matrix.
	Src []int64
	Dst []int64
	// EdgeIndex is present only for multigraph outputs: EdgeIndex[i] is
	// edge i's multiplicity rank among its endpoint pair.
	EdgeIndex []int64
	// Attrs maps attribute name to a length-M f64 vector, element order
	// matching Src/Dst.
	Attrs map[string][]float64
}

// Len returns M, the number of edges accumulated in this entry.
func (e *COOEntry) Len() int {
	return len(e.Src)
}

// Append records one edge's endpoint indices.
func (e *COOEntry) Append(src, dst int64) {
	e.Src = append(e.Src, src)
	e.Dst = append(e.Dst, dst)
}

// AppendEdgeIndex records one edge's multiplicity rank.
func (e *COOEntry) AppendEdgeIndex(idx int64) {
	e.EdgeIndex = append(e.EdgeIndex, idx)
}

// AppendAttr appends one value to a named attribute vector.
func (e *COOEntry) AppendAttr(name string, v float64) {
	if e.Attrs == nil {
		e.Attrs = make(map[string][]float64)
	}
	e.Attrs[name] = append(e.Attrs[name], v)
}

// NewCOOEntry allocates an entry pre-sized for an expected edge count.
func NewCOOEntry(expected int) *COOEntry {
	return &COOEntry{
		Src: make([]int64, 0, expected),
		Dst: make([]int64, 0, expected),
	}
}

// COOMap is the keyed collection of COO entries spec.md §3 describes.
type COOMap map[CollectionTriple]*COOEntry

// GetOrCreate returns the entry for triple t, creating an empty one if
// absent.
func (m COOMap) GetOrCreate(t CollectionTriple) *COOEntry {
	e, ok := m[t]
	if !ok {
		e = NewCOOEntry(0)
		m[t] = e
	}
	return e
}

// TotalEdges sums M across every bucket.
func (m COOMap) TotalEdges() int {
	total := 0
	for _, e := range m {
		total += e.Len()
	}
	return total
}
