package vector

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dense is a vector backed by a plain slice.
type Dense struct {
	data []float64
}

func NewDense(dim int) *Dense {
	return &Dense{data: make([]float64, dim)}
}

// DenseOf wraps data without copying.
func DenseOf(data []float64) *Dense {
	return &Dense{data: data}
}

func (d *Dense) Dim() int { return len(d.data) }

func (d *Dense) Get(i int) float64 {
	checkDim(i, len(d.data))
	return d.data[i]
}

func (d *Dense) Set(i int, v float64) {
	checkDim(i, len(d.data))
	d.data[i] = v
}

// Each visits the non-zero entries.
func (d *Dense) Each(fn func(i int, v float64)) {
	for i, v := range d.data {
		if v != 0 {
			fn(i, v)
		}
	}
}

func (d *Dense) NonZero() int {
	n := 0
	for _, v := range d.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Raw returns the backing slice.
func (d *Dense) Raw() []float64 { return d.data }

func (d *Dense) Dot(o *Dense) float64 { return floats.Dot(d.data, o.data) }

func (d *Dense) Norm() float64 { return floats.Norm(d.data, 2) }

func (d *Dense) Distance(o *Dense) float64 { return floats.Distance(d.data, o.data, 2) }

// AddScaled adds alpha*v to d.
func (d *Dense) AddScaled(alpha float64, v Vector) {
	if o, ok := v.(*Dense); ok {
		floats.AddScaled(d.data, alpha, o.data)
		return
	}
	v.Each(func(i int, x float64) {
		d.data[i] += alpha * x
	})
}

func (d *Dense) Scale(c float64) { floats.Scale(c, d.data) }

func (d *Dense) Sum() float64 { return floats.Sum(d.data) }

// ToSparse drops zero entries.
func (d *Dense) ToSparse() *Sparse {
	s := NewSparse(len(d.data))
	for i, v := range d.data {
		if v != 0 {
			s.indices = append(s.indices, i)
			s.values = append(s.values, v)
		}
	}
	return s
}

// DenseMatrix is a row-major dense matrix backed by gonum's mat.Dense.
type DenseMatrix struct {
	m *mat.Dense
}

func NewDenseMatrix(rows, cols int) *DenseMatrix {
	return &DenseMatrix{m: mat.NewDense(rows, cols, nil)}
}

func (m *DenseMatrix) Dims() (int, int) { return m.m.Dims() }

func (m *DenseMatrix) At(i, j int) float64 { return m.m.At(i, j) }

func (m *DenseMatrix) Set(i, j int, v float64) { m.m.Set(i, j, v) }

// Row returns row i as a vector sharing the matrix storage.
func (m *DenseMatrix) Row(i int) *Dense {
	return DenseOf(m.m.RawRowView(i))
}

// AddToRow adds alpha*v to row i.
func (m *DenseMatrix) AddToRow(i int, alpha float64, v Vector) {
	m.Row(i).AddScaled(alpha, v)
}

// ScaleRow multiplies row i by c.
func (m *DenseMatrix) ScaleRow(i int, c float64) {
	floats.Scale(c, m.m.RawRowView(i))
}
