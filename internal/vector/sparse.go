package vector

import (
	"math"
	"sort"
)

// Sparse stores the non-zero entries of a vector as parallel slices sorted by
// dimension.
type Sparse struct {
	dim     int
	indices []int
	values  []float64
}

// NewSparse creates an empty sparse vector with the given dimension.
func NewSparse(dim int) *Sparse {
	return &Sparse{dim: dim}
}

func (s *Sparse) Dim() int { return s.dim }

func (s *Sparse) NonZero() int { return len(s.indices) }

func (s *Sparse) find(i int) (int, bool) {
	pos := sort.SearchInts(s.indices, i)
	return pos, pos < len(s.indices) && s.indices[pos] == i
}

func (s *Sparse) Get(i int) float64 {
	checkDim(i, s.dim)
	if pos, ok := s.find(i); ok {
		return s.values[pos]
	}
	return 0
}

// Set stores v at dimension i. Setting zero removes the entry.
func (s *Sparse) Set(i int, v float64) {
	checkDim(i, s.dim)
	pos, ok := s.find(i)
	switch {
	case ok && v == 0:
		s.indices = append(s.indices[:pos], s.indices[pos+1:]...)
		s.values = append(s.values[:pos], s.values[pos+1:]...)
	case ok:
		s.values[pos] = v
	case v != 0:
		// Appending in ascending order is the common case when vectors are
		// filled from sorted postings.
		if pos == len(s.indices) {
			s.indices = append(s.indices, i)
			s.values = append(s.values, v)
			return
		}
		s.indices = append(s.indices, 0)
		s.values = append(s.values, 0)
		copy(s.indices[pos+1:], s.indices[pos:])
		copy(s.values[pos+1:], s.values[pos:])
		s.indices[pos] = i
		s.values[pos] = v
	}
}

// Add increments dimension i by v.
func (s *Sparse) Add(i int, v float64) {
	s.Set(i, s.Get(i)+v)
}

func (s *Sparse) Each(fn func(i int, v float64)) {
	for k, i := range s.indices {
		fn(i, s.values[k])
	}
}

// Indices returns the stored dimensions in ascending order. The slice is
// shared with the vector and must not be modified.
func (s *Sparse) Indices() []int { return s.indices }

// Values returns the stored values parallel to Indices.
func (s *Sparse) Values() []float64 { return s.values }

func (s *Sparse) Scale(c float64) {
	for k := range s.values {
		s.values[k] *= c
	}
}

// Normalize scales s to unit Euclidean norm. The zero vector is left as is.
func (s *Sparse) Normalize() {
	n := Norm(s)
	if n == 0 {
		return
	}
	s.Scale(1 / n)
}

func (s *Sparse) Clone() *Sparse {
	return &Sparse{
		dim:     s.dim,
		indices: append([]int(nil), s.indices...),
		values:  append([]float64(nil), s.values...),
	}
}

func (s *Sparse) ToDense() *Dense {
	d := NewDense(s.dim)
	for k, i := range s.indices {
		d.data[i] = s.values[k]
	}
	return d
}

// Sum returns the sum of the stored values.
func (s *Sparse) Sum() float64 {
	var sum float64
	for _, v := range s.values {
		sum += v
	}
	return sum
}

func (s *Sparse) dotSparse(o *Sparse) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(s.indices) && j < len(o.indices) {
		switch {
		case s.indices[i] == o.indices[j]:
			sum += s.values[i] * o.values[j]
			i++
			j++
		case s.indices[i] < o.indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

func (s *Sparse) dotAny(o Vector) float64 {
	var sum float64
	for k, i := range s.indices {
		sum += s.values[k] * o.Get(i)
	}
	return sum
}

// Equal reports whether s and o hold the same entries within tol.
func (s *Sparse) Equal(o *Sparse, tol float64) bool {
	if s.dim != o.dim || len(s.indices) != len(o.indices) {
		return false
	}
	for k := range s.indices {
		if s.indices[k] != o.indices[k] || math.Abs(s.values[k]-o.values[k]) > tol {
			return false
		}
	}
	return true
}
