package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseSetKeepsOrder(t *testing.T) {
	s := NewSparse(10)
	s.Set(7, 1)
	s.Set(2, 3)
	s.Set(5, 2)
	s.Set(2, 4)
	assert.Equal(t, []int{2, 5, 7}, s.Indices())
	assert.Equal(t, []float64{4, 2, 1}, s.Values())

	s.Set(5, 0)
	assert.Equal(t, []int{2, 7}, s.Indices())
	s.Add(7, 1.5)
	assert.Equal(t, 2.5, s.Get(7))
	assert.Panics(t, func() { s.Set(10, 1) })
}

func TestDotNormDistance(t *testing.T) {
	a := NewSparse(4)
	a.Set(0, 1)
	a.Set(2, 2)
	b := NewSparse(4)
	b.Set(2, 3)
	b.Set(3, 1)

	assert.Equal(t, 6.0, Dot(a, b))
	assert.Equal(t, 6.0, Dot(a, b.ToDense()))
	assert.Equal(t, 6.0, Dot(a.ToDense(), b.ToDense()))
	assert.InDelta(t, math.Sqrt(5), Norm(a), 1e-12)
	assert.InDelta(t, a.ToDense().Distance(b.ToDense()), Distance(a, b), 1e-12)
	assert.InDelta(t, 6/(math.Sqrt(5)*math.Sqrt(10)), Cosine(a, b), 1e-12)
	assert.Equal(t, 0.0, Cosine(a, NewSparse(4)))
	assert.Panics(t, func() { Dot(a, NewSparse(3)) })
}

func TestConcatShiftsDimensions(t *testing.T) {
	a := NewSparse(3)
	a.Set(1, 1)
	b := NewDense(2)
	b.Set(0, 5)
	c := Concat(a, b)
	assert.Equal(t, 5, c.Dim())
	assert.Equal(t, []int{1, 3}, c.Indices())
	assert.Equal(t, []float64{1, 5}, c.Values())
}

func TestNormalize(t *testing.T) {
	s := NewSparse(3)
	s.Set(0, 3)
	s.Set(1, 4)
	s.Normalize()
	assert.InDelta(t, 1, Norm(s), 1e-12)
	assert.InDelta(t, 0.6, s.Get(0), 1e-12)

	zero := NewSparse(3)
	zero.Normalize()
	assert.Equal(t, 0, zero.NonZero())
}

func TestSparseMatrix(t *testing.T) {
	m := NewSparseMatrix(2, 3)
	m.Row(0).Set(0, 1)
	m.Row(0).Set(2, 2)
	m.Row(1).Set(1, 4)

	x := NewSparse(2)
	x.Set(0, 2)
	x.Set(1, 0.5)
	assert.Equal(t, []float64{2, 2, 4}, m.VecMul(x).Raw())

	tr := m.Transpose()
	assert.Equal(t, 3, tr.Rows())
	assert.Equal(t, 2.0, tr.At(2, 0))
	assert.Equal(t, 4.0, tr.At(1, 1))

	dropped, remap := m.DropColumns([]bool{true, false, true})
	require.Equal(t, 2, dropped.Cols())
	assert.Equal(t, []int{0, -1, 1}, remap)
	assert.Equal(t, 2.0, dropped.At(0, 1))
	assert.Equal(t, 0, dropped.Row(1).NonZero())
}

func TestDenseMatrixRows(t *testing.T) {
	m := NewDenseMatrix(2, 3)
	v := NewSparse(3)
	v.Set(1, 2)
	m.AddToRow(1, 0.5, v)
	m.ScaleRow(1, 4)
	assert.Equal(t, 4.0, m.At(1, 1))
	assert.Equal(t, []float64{0, 4, 0}, m.Row(1).Raw())
}
