// Package vector provides the sparse and dense vector and matrix types used
// to move documents between the index model and the learning algorithms.
// Dense numerics are delegated to gonum.
package vector

import (
	"fmt"
	"math"
)

// Vector is a fixed-dimension real vector. Each visits the stored entries in
// ascending dimension order.
type Vector interface {
	Dim() int
	Get(i int) float64
	Set(i int, v float64)
	Each(fn func(i int, v float64))
	NonZero() int
}

func checkDim(i, dim int) {
	if i < 0 || i >= dim {
		panic(fmt.Sprintf("vector: dimension %d out of range [0, %d)", i, dim))
	}
}

// Dot returns the inner product of a and b. Sparse operands are merged in
// linear time; dense pairs go through gonum.
func Dot(a, b Vector) float64 {
	if a.Dim() != b.Dim() {
		panic(fmt.Sprintf("vector: dot of mismatched dimensions %d and %d", a.Dim(), b.Dim()))
	}
	sa, aSparse := a.(*Sparse)
	sb, bSparse := b.(*Sparse)
	switch {
	case aSparse && bSparse:
		return sa.dotSparse(sb)
	case aSparse:
		return sa.dotAny(b)
	case bSparse:
		return sb.dotAny(a)
	}
	da, aDense := a.(*Dense)
	db, bDense := b.(*Dense)
	if aDense && bDense {
		return da.Dot(db)
	}
	var sum float64
	a.Each(func(i int, v float64) {
		sum += v * b.Get(i)
	})
	return sum
}

// Norm returns the Euclidean norm of v.
func Norm(v Vector) float64 {
	if d, ok := v.(*Dense); ok {
		return d.Norm()
	}
	var sum float64
	v.Each(func(_ int, x float64) {
		sum += x * x
	})
	return math.Sqrt(sum)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vector) float64 {
	da, aDense := a.(*Dense)
	db, bDense := b.(*Dense)
	if aDense && bDense {
		return da.Distance(db)
	}
	sq := Dot(a, a) + Dot(b, b) - 2*Dot(a, b)
	if sq < 0 {
		sq = 0
	}
	return math.Sqrt(sq)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is the
// zero vector.
func Cosine(a, b Vector) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// Concat joins vectors into one sparse vector whose dimension is the sum of
// the input dimensions; entries of the k-th vector are shifted by the total
// dimension of the vectors before it.
func Concat(vectors ...Vector) *Sparse {
	totalDim, totalNnz := 0, 0
	for _, v := range vectors {
		totalDim += v.Dim()
		totalNnz += v.NonZero()
	}
	out := &Sparse{
		dim:     totalDim,
		indices: make([]int, 0, totalNnz),
		values:  make([]float64, 0, totalNnz),
	}
	offset := 0
	for _, v := range vectors {
		v.Each(func(i int, x float64) {
			out.indices = append(out.indices, i+offset)
			out.values = append(out.values, x)
		})
		offset += v.Dim()
	}
	return out
}
