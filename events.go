package tickplot

import "github.com/tickplot/tickplot/render"

// DeltaMode describes the granularity a pointing device reports wheel
// deltas in.
type DeltaMode uint8

const (
	DeltaPixel DeltaMode = iota
	DeltaLine
	DeltaPage
)

// pixel equivalents for non-pixel wheel granularities.
const (
	lineScrollPixels = 32
	pageScrollPixels = 360
	// wheelNotchPixels is one detent of a conventional wheel; a single
	// notch maps to one full zoom step.
	wheelNotchPixels = 120
)

// pixels converts a raw wheel delta into pixels.
func (m DeltaMode) pixels(delta float64) float64 {
	switch m {
	case DeltaLine:
		return delta * lineScrollPixels
	case DeltaPage:
		return delta * pageScrollPixels
	default:
		return delta
	}
}

// WheelEvent is a pointer wheel gesture as delivered by the host.
// Horizontal deltas scroll, vertical deltas zoom around ClientX.
type WheelEvent struct {
	DeltaX    float64
	DeltaY    float64
	ClientX   Coordinate
	DeltaMode DeltaMode
}

// CrosshairEvent reports the chart state under the pointer. Time and Point
// are nil when the pointer is outside the data or the plot area.
type CrosshairEvent struct {
	Time  *int64
	Index *TimeIndex
	Point *render.Point
	// SeriesValues maps each series with a record at the hovered index to
	// that record's base value.
	SeriesValues map[SeriesID]float64
}

// SetCrosshairMoveHandler registers the callback fired when the crosshair
// position changes.
func (c *Chart) SetCrosshairMoveHandler(fn func(CrosshairEvent)) {
	c.onCrosshairMove = fn
}

// SetClickHandler registers the callback fired on pointer clicks inside
// the plot area.
func (c *Chart) SetClickHandler(fn func(CrosshairEvent)) {
	c.onClick = fn
}

// SetVisibleRangeHandler registers the callback fired after paints whose
// visible index range differs from the previously painted one.
func (c *Chart) SetVisibleRangeHandler(fn func(IndexRange)) {
	c.onVisibleRangeChange = fn
}
