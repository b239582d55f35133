package index

import "github.com/RoaringBitmap/roaring/v2"

// DocIterator walks document IDs in ascending order. Reset restarts it from
// the first ID.
type DocIterator interface {
	Next() (int, bool)
	Reset()
}

type bitmapIterator struct {
	bm *roaring.Bitmap
	it roaring.IntPeekable
}

func newBitmapIterator(bm *roaring.Bitmap) *bitmapIterator {
	return &bitmapIterator{bm: bm, it: bm.Iterator()}
}

func (b *bitmapIterator) Next() (int, bool) {
	if !b.it.HasNext() {
		return 0, false
	}
	return int(b.it.Next()), true
}

func (b *bitmapIterator) Reset() {
	b.it = b.bm.Iterator()
}

// intersectIterator merges two sorted posting iterators, skipping ahead on
// the lagging side, so the intersection is never materialised.
type intersectIterator struct {
	left, right     *roaring.Bitmap
	leftIt, rightIt roaring.IntPeekable
}

func newIntersectIterator(left, right *roaring.Bitmap) *intersectIterator {
	it := &intersectIterator{left: left, right: right}
	it.Reset()
	return it
}

func (it *intersectIterator) Next() (int, bool) {
	for it.leftIt.HasNext() && it.rightIt.HasNext() {
		l, r := it.leftIt.PeekNext(), it.rightIt.PeekNext()
		switch {
		case l == r:
			it.leftIt.Next()
			it.rightIt.Next()
			return int(l), true
		case l < r:
			it.leftIt.AdvanceIfNeeded(r)
		default:
			it.rightIt.AdvanceIfNeeded(l)
		}
	}
	return 0, false
}

func (it *intersectIterator) Reset() {
	it.leftIt = it.left.Iterator()
	it.rightIt = it.right.Iterator()
}

// Collect drains it into a slice.
func Collect(it DocIterator) []int {
	var out []int
	for {
		id, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, id)
	}
}
