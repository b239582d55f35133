package vector

import "fmt"

// SparseMatrix is a row-major matrix of sparse rows.
type SparseMatrix struct {
	rows []*Sparse
	cols int
}

func NewSparseMatrix(rows, cols int) *SparseMatrix {
	m := &SparseMatrix{rows: make([]*Sparse, rows), cols: cols}
	for i := range m.rows {
		m.rows[i] = NewSparse(cols)
	}
	return m
}

func (m *SparseMatrix) Rows() int { return len(m.rows) }

func (m *SparseMatrix) Cols() int { return m.cols }

func (m *SparseMatrix) Row(i int) *Sparse {
	if i < 0 || i >= len(m.rows) {
		panic(fmt.Sprintf("vector: row %d out of range [0, %d)", i, len(m.rows)))
	}
	return m.rows[i]
}

func (m *SparseMatrix) SetRow(i int, row *Sparse) {
	if row.Dim() != m.cols {
		panic(fmt.Sprintf("vector: row of dimension %d in matrix with %d columns", row.Dim(), m.cols))
	}
	m.Row(i)
	m.rows[i] = row
}

func (m *SparseMatrix) At(i, j int) float64 { return m.Row(i).Get(j) }

// VecMul returns xᵀM: the sum of rows weighted by the entries of x.
func (m *SparseMatrix) VecMul(x Vector) *Dense {
	if x.Dim() != len(m.rows) {
		panic(fmt.Sprintf("vector: vecmul of %d-vector with %d-row matrix", x.Dim(), len(m.rows)))
	}
	out := NewDense(m.cols)
	x.Each(func(i int, w float64) {
		out.AddScaled(w, m.rows[i])
	})
	return out
}

// Transpose returns a new matrix with rows and columns swapped.
func (m *SparseMatrix) Transpose() *SparseMatrix {
	t := NewSparseMatrix(m.cols, len(m.rows))
	for i, row := range m.rows {
		row.Each(func(j int, v float64) {
			// rows are visited in ascending i, so each target row grows in order
			t.rows[j].indices = append(t.rows[j].indices, i)
			t.rows[j].values = append(t.rows[j].values, v)
		})
	}
	return t
}

// DropColumns returns a matrix keeping only the columns for which keep is
// true, renumbered densely, and the old→new column map (-1 for dropped).
func (m *SparseMatrix) DropColumns(keep []bool) (*SparseMatrix, []int) {
	remap := make([]int, m.cols)
	next := 0
	for j := range remap {
		if keep[j] {
			remap[j] = next
			next++
		} else {
			remap[j] = -1
		}
	}
	out := NewSparseMatrix(len(m.rows), next)
	for i, row := range m.rows {
		row.Each(func(j int, v float64) {
			if nj := remap[j]; nj >= 0 {
				out.rows[i].indices = append(out.rows[i].indices, nj)
				out.rows[i].values = append(out.rows[i].values, v)
			}
		})
	}
	return out, remap
}
