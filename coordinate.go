package tickplot

import "math"

// Coordinate is a pixel position on the drawing surface. It is a distinct
// type from indices and prices so that the two unit systems cannot be mixed
// by accident. A non-finite Coordinate is unrenderable and must be skipped
// by consumers rather than drawn.
type Coordinate float64

// Finite reports whether the coordinate can be rendered.
func (c Coordinate) Finite() bool {
	return !math.IsNaN(float64(c)) && !math.IsInf(float64(c), 0)
}

// TimeIndex is a position within the dense, gap-aware sequence of time
// points shared by every series on a chart. Indices are assigned in strictly
// increasing order and never repeat or reorder. Individual series may have
// no value at a given index.
type TimeIndex int

// IndexRange is a half-open window [From, To) of time indices.
type IndexRange struct {
	From TimeIndex
	To   TimeIndex
}

// Empty reports whether the range contains no indices.
func (r IndexRange) Empty() bool {
	return r.To <= r.From
}

// Count returns the number of indices in the range.
func (r IndexRange) Count() int {
	if r.Empty() {
		return 0
	}
	return int(r.To - r.From)
}

// Contains reports whether i falls inside the half-open range.
func (r IndexRange) Contains(i TimeIndex) bool {
	return i >= r.From && i < r.To
}
