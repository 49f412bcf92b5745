package tickplot

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/exp/constraints"
)

func floor[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Floor(float64(a)))
}

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// TimeScaleOptions configure the horizontal axis.
type TimeScaleOptions struct {
	// BarSpacing is the initial number of pixels per time index step.
	BarSpacing float64
	// MinBarSpacing and MaxBarSpacing bound zooming.
	MinBarSpacing float64
	MaxBarSpacing float64
	// RightOffset is the amount of whitespace, in bars, kept to the right
	// of the newest bar.
	RightOffset float64
	// ScrollPastEdge permits scrolling the visible range beyond the data
	// extent. When false, scrolling clamps at the first and last bars.
	ScrollPastEdge bool
	// AutoScroll keeps the newest bar in view when data is appended while
	// the view is already at the right edge.
	AutoScroll bool
}

// TimeScale maps time indices to horizontal pixel coordinates. The mapping
// is a pure affine function of the current bar spacing and scroll position:
// recomputing with unchanged state yields bit-identical results.
type TimeScale struct {
	opts       TimeScaleOptions
	width      Coordinate
	barSpacing float64
	// rightOffset is the current scroll position expressed as the number
	// of bars between the newest time point and the right edge of the
	// plot. Positive values leave whitespace right of the newest bar.
	rightOffset float64
	// times holds one unix-nanosecond timestamp per assigned index.
	times []int64
}

// NewTimeScale returns a time scale with no time points. Out-of-range
// option values are replaced with usable defaults rather than rejected.
func NewTimeScale(opts TimeScaleOptions) *TimeScale {
	if opts.MinBarSpacing <= 0 {
		opts.MinBarSpacing = 0.5
	}
	if opts.MaxBarSpacing <= opts.MinBarSpacing {
		opts.MaxBarSpacing = 100
	}
	if opts.BarSpacing <= 0 {
		opts.BarSpacing = 6
	}
	opts.BarSpacing = clamp(opts.BarSpacing, opts.MinBarSpacing, opts.MaxBarSpacing)
	return &TimeScale{
		opts:        opts,
		barSpacing:  opts.BarSpacing,
		rightOffset: opts.RightOffset,
	}
}

// IsEmpty reports whether the scale has no time points yet. All coordinate
// queries on an empty scale report ok=false.
func (ts *TimeScale) IsEmpty() bool {
	return len(ts.times) == 0 || ts.width <= 0
}

// Size returns the number of assigned time points.
func (ts *TimeScale) Size() int {
	return len(ts.times)
}

// Width returns the horizontal pixel extent of the plot area.
func (ts *TimeScale) Width() Coordinate {
	return ts.width
}

// SetWidth updates the plot width. Non-positive widths are ignored.
func (ts *TimeScale) SetWidth(w Coordinate) {
	if w <= 0 || w == ts.width {
		return
	}
	ts.width = w
	ts.clampOffset()
}

// BarSpacing returns the current number of pixels per index step.
func (ts *TimeScale) BarSpacing() float64 {
	return ts.barSpacing
}

// SetBarSpacing sets the zoom level, clamped to the configured bounds.
func (ts *TimeScale) SetBarSpacing(spacing float64) {
	ts.barSpacing = clamp(spacing, ts.opts.MinBarSpacing, ts.opts.MaxBarSpacing)
	ts.clampOffset()
}

// lastIndex is only meaningful when the scale is non-empty.
func (ts *TimeScale) lastIndex() TimeIndex {
	return TimeIndex(len(ts.times) - 1)
}

// rightEdge returns the fractional index rendered at the right edge of the
// plot area.
func (ts *TimeScale) rightEdge() float64 {
	return float64(ts.lastIndex()) + ts.rightOffset
}

// AppendTime registers a new time point and returns its index. Times must
// be strictly increasing; appending a time at or before the newest existing
// point is a programming error. When the view is stuck to the right edge
// and AutoScroll is enabled, the view follows the new bar; otherwise the
// scroll position is preserved.
func (ts *TimeScale) AppendTime(unixNanos int64) (TimeIndex, error) {
	if len(ts.times) > 0 && unixNanos <= ts.times[len(ts.times)-1] {
		return 0, fmt.Errorf("time %d is not after newest time point %d", unixNanos, ts.times[len(ts.times)-1])
	}
	stick := ts.opts.AutoScroll && ts.rightOffset >= ts.maxOffset()-1e-9
	ts.times = append(ts.times, unixNanos)
	if !stick && len(ts.times) > 1 {
		// Keep the previously visible bars in place.
		ts.rightOffset--
	}
	ts.clampOffset()
	return ts.lastIndex(), nil
}

// IndexForTime returns the index holding exactly the given time.
func (ts *TimeScale) IndexForTime(unixNanos int64) (TimeIndex, bool) {
	i, found := slices.BinarySearch(ts.times, unixNanos)
	if !found {
		return 0, false
	}
	return TimeIndex(i), true
}

// TimeAt returns the timestamp assigned to the given index.
func (ts *TimeScale) TimeAt(i TimeIndex) (int64, bool) {
	if i < 0 || int(i) >= len(ts.times) {
		return 0, false
	}
	return ts.times[i], true
}

// IndexToCoordinate maps an index to the x pixel of its bar center.
func (ts *TimeScale) IndexToCoordinate(i TimeIndex) (Coordinate, bool) {
	if ts.IsEmpty() {
		return 0, false
	}
	x := float64(ts.width) - 1 - (ts.rightEdge()-float64(i))*ts.barSpacing
	return Coordinate(x), true
}

// CoordinateToIndex maps an x pixel back to the nearest index. Together
// with IndexToCoordinate it is invertible for integer indices while the
// scale state is unchanged.
func (ts *TimeScale) CoordinateToIndex(x Coordinate) (TimeIndex, bool) {
	f, ok := ts.coordinateToFloatIndex(x)
	if !ok {
		return 0, false
	}
	return TimeIndex(math.Round(f)), true
}

func (ts *TimeScale) coordinateToFloatIndex(x Coordinate) (float64, bool) {
	if ts.IsEmpty() {
		return 0, false
	}
	return ts.rightEdge() - (float64(ts.width)-1-float64(x))/ts.barSpacing, true
}

// VisibleRange returns the half-open window of integer indices whose bar
// centers fall inside the plot area. The logical window may extend beyond
// the data extent when scrolling past the edge is permitted.
func (ts *TimeScale) VisibleRange() (IndexRange, bool) {
	if ts.IsEmpty() {
		return IndexRange{}, false
	}
	left, _ := ts.coordinateToFloatIndex(0)
	right, _ := ts.coordinateToFloatIndex(ts.width - 1)
	// The epsilon keeps bars whose centers land exactly on a plot edge
	// inside the window despite floating-point noise.
	const eps = 1e-9
	return IndexRange{
		From: TimeIndex(ceil(left - eps)),
		To:   TimeIndex(floor(right+eps)) + 1,
	}, true
}

// VisibleDataRange returns the visible window clamped to assigned indices.
func (ts *TimeScale) VisibleDataRange() (IndexRange, bool) {
	r, ok := ts.VisibleRange()
	if !ok {
		return IndexRange{}, false
	}
	r.From = clamp(r.From, 0, ts.lastIndex()+1)
	r.To = clamp(r.To, 0, ts.lastIndex()+1)
	if r.Empty() {
		return IndexRange{}, false
	}
	return r, true
}

// ScrollPixels shifts the visible range by a pixel delta. Positive deltas
// move the view toward newer data. The resulting position is clamped to
// the data extent unless scrolling past the edge is enabled.
func (ts *TimeScale) ScrollPixels(dx Coordinate) {
	if ts.IsEmpty() || dx == 0 {
		return
	}
	ts.rightOffset += float64(dx) / ts.barSpacing
	ts.clampOffset()
}

// Zoom adjusts bar spacing by delta zoom steps while keeping the data point
// under the anchor pixel fixed. One full step scales spacing by 1.25; the
// result is clamped to the configured spacing bounds before the anchor is
// re-solved.
func (ts *TimeScale) Zoom(anchor Coordinate, delta float64) {
	if ts.IsEmpty() || delta == 0 || !anchor.Finite() {
		return
	}
	anchorIndex, _ := ts.coordinateToFloatIndex(anchor)
	spacing := clamp(ts.barSpacing*math.Pow(1.25, delta), ts.opts.MinBarSpacing, ts.opts.MaxBarSpacing)
	if spacing == ts.barSpacing {
		return
	}
	ts.barSpacing = spacing
	// Solve the right offset so the anchor keeps its index.
	edge := anchorIndex + (float64(ts.width)-1-float64(anchor))/ts.barSpacing
	ts.rightOffset = edge - float64(ts.lastIndex())
	ts.clampOffset()
}

// FitContent sets the visible range to exactly span all assigned indices:
// the first and last bar centers land on the plot edges.
func (ts *TimeScale) FitContent() {
	if ts.IsEmpty() {
		return
	}
	spacing := float64(ts.width) - 1
	if n := len(ts.times); n > 1 {
		spacing /= float64(n - 1)
	}
	ts.barSpacing = clamp(spacing, ts.opts.MinBarSpacing, ts.opts.MaxBarSpacing)
	ts.rightOffset = ts.opts.RightOffset
	ts.clampOffset()
}

func (ts *TimeScale) maxOffset() float64 {
	return ts.opts.RightOffset
}

// clampOffset enforces the scroll bounds. With ScrollPastEdge disabled the
// view may not move past either data edge: the left boundary pins the first
// bar to the left plot edge, degrading to the right bound when the data is
// narrower than the plot.
func (ts *TimeScale) clampOffset() {
	if ts.opts.ScrollPastEdge || ts.IsEmpty() {
		return
	}
	hi := ts.maxOffset()
	lo := (float64(ts.width)-1)/ts.barSpacing - float64(ts.lastIndex())
	if lo > hi {
		lo = hi
	}
	ts.rightOffset = clamp(ts.rightOffset, lo, hi)
}
