package tickplot

import (
	"fmt"
	"math"
)

// PriceScaleMode selects the transform applied to raw prices before they
// are mapped to pixels.
type PriceScaleMode uint8

const (
	// PriceScaleNormal maps raw prices linearly.
	PriceScaleNormal PriceScaleMode = iota
	// PriceScalePercentage maps prices as percent change from the series
	// first value.
	PriceScalePercentage
	// PriceScaleLogarithmic maps prices through a sign-preserving log10.
	PriceScaleLogarithmic

	priceScaleModeCount
)

// PriceRange is a closed value interval in transformed price units.
type PriceRange struct {
	MinValue float64
	MaxValue float64
}

// Valid reports whether the range is finite and non-degenerate.
func (r PriceRange) Valid() bool {
	return !math.IsNaN(r.MinValue) && !math.IsNaN(r.MaxValue) &&
		!math.IsInf(r.MinValue, 0) && !math.IsInf(r.MaxValue, 0) &&
		r.MaxValue > r.MinValue
}

// Span returns the extent of the range.
func (r PriceRange) Span() float64 {
	return r.MaxValue - r.MinValue
}

// PriceScaleOptions configure a pane's vertical axis.
type PriceScaleOptions struct {
	// AutoScale recomputes the range from visible data on every update.
	AutoScale bool
	Mode      PriceScaleMode
	// MarginTop and MarginBottom reserve a fraction of the pane height
	// above and below the data. Values are clamped to [0, 0.4].
	MarginTop    float64
	MarginBottom float64
}

func (o PriceScaleOptions) normalized() PriceScaleOptions {
	if o.Mode >= priceScaleModeCount {
		o.Mode = PriceScaleNormal
	}
	o.MarginTop = clamp(o.MarginTop, 0, 0.4)
	o.MarginBottom = clamp(o.MarginBottom, 0, 0.4)
	return o
}

// PriceScale maps prices to vertical pixel coordinates for one pane. A
// scale with no range is empty: every dependent query reports ok=false
// rather than producing a degenerate transform.
type PriceScale struct {
	opts   PriceScaleOptions
	height Coordinate
	rng    *PriceRange
}

// NewPriceScale returns an empty scale.
func NewPriceScale(opts PriceScaleOptions) *PriceScale {
	return &PriceScale{opts: opts.normalized()}
}

// IsEmpty reports whether the scale has no usable range or no height.
func (ps *PriceScale) IsEmpty() bool {
	return ps.rng == nil || ps.height <= 0
}

// Mode returns the active price transform.
func (ps *PriceScale) Mode() PriceScaleMode {
	return ps.opts.Mode
}

// SetMode switches the transform and drops the current range, since ranges
// are stored in transformed units. Unknown modes are ignored.
func (ps *PriceScale) SetMode(m PriceScaleMode) {
	if m >= priceScaleModeCount || m == ps.opts.Mode {
		return
	}
	ps.opts.Mode = m
	ps.rng = nil
}

// AutoScaleEnabled reports whether the range follows visible data.
func (ps *PriceScale) AutoScaleEnabled() bool {
	return ps.opts.AutoScale
}

// SetAutoScale toggles automatic ranging.
func (ps *PriceScale) SetAutoScale(enabled bool) {
	ps.opts.AutoScale = enabled
}

// Height returns the pane-local pixel height.
func (ps *PriceScale) Height() Coordinate {
	return ps.height
}

// SetHeight updates the pane-local pixel height. Non-positive heights are
// ignored.
func (ps *PriceScale) SetHeight(h Coordinate) {
	if h > 0 {
		ps.height = h
	}
}

// Range returns the current transformed value range.
func (ps *PriceScale) Range() (PriceRange, bool) {
	if ps.rng == nil {
		return PriceRange{}, false
	}
	return *ps.rng, true
}

// SetRange installs a manual range. Degenerate or non-finite ranges are
// rejected so the scale never holds an unusable transform.
func (ps *PriceScale) SetRange(r PriceRange) error {
	if !r.Valid() {
		return fmt.Errorf("price range [%v, %v] is degenerate", r.MinValue, r.MaxValue)
	}
	ps.rng = &r
	return nil
}

// SetRangeFromData recomputes the range from the extrema of visible,
// already-transformed data, applying the configured margins. An equal
// min and max is widened so the range stays non-degenerate whenever data
// is visible.
func (ps *PriceScale) SetRangeFromData(minValue, maxValue float64) {
	if math.IsNaN(minValue) || math.IsNaN(maxValue) || minValue > maxValue {
		return
	}
	if minValue == maxValue {
		pad := math.Abs(minValue) * 0.05
		if pad == 0 {
			pad = 0.5
		}
		minValue -= pad
		maxValue += pad
	}
	span := maxValue - minValue
	minValue -= span * ps.opts.MarginBottom
	maxValue += span * ps.opts.MarginTop
	ps.rng = &PriceRange{MinValue: minValue, MaxValue: maxValue}
}

// ClearRange empties the scale, used when no data is visible.
func (ps *PriceScale) ClearRange() {
	ps.rng = nil
}

// Transform converts a raw price into the scale's internal units.
// firstValue anchors the percentage and logarithmic modes; callers obtain
// it from the owning series.
func (ps *PriceScale) Transform(price, firstValue float64) (float64, bool) {
	switch ps.opts.Mode {
	case PriceScalePercentage:
		if firstValue == 0 {
			return 0, false
		}
		return (price - firstValue) / firstValue * 100, true
	case PriceScaleLogarithmic:
		return signedLog10(price), true
	default:
		return price, true
	}
}

// InverseTransform converts internal units back to a raw price.
func (ps *PriceScale) InverseTransform(value, firstValue float64) (float64, bool) {
	switch ps.opts.Mode {
	case PriceScalePercentage:
		if firstValue == 0 {
			return 0, false
		}
		return value/100*firstValue + firstValue, true
	case PriceScaleLogarithmic:
		return signedPow10(value), true
	default:
		return value, true
	}
}

// PriceToCoordinate maps a raw price to a pane-local y pixel. Queries on an
// empty scale report ok=false.
func (ps *PriceScale) PriceToCoordinate(price, firstValue float64) (Coordinate, bool) {
	if ps.IsEmpty() {
		return 0, false
	}
	v, ok := ps.Transform(price, firstValue)
	if !ok {
		return 0, false
	}
	return ps.valueToCoordinate(v), true
}

// CoordinateToPrice maps a pane-local y pixel back to a raw price.
func (ps *PriceScale) CoordinateToPrice(y Coordinate, firstValue float64) (float64, bool) {
	if ps.IsEmpty() {
		return 0, false
	}
	v := ps.rng.MaxValue - float64(y)/(float64(ps.height)-1)*ps.rng.Span()
	return ps.InverseTransform(v, firstValue)
}

// valueToCoordinate maps transformed units to a pane-local y pixel with
// y=0 at the top of the pane.
func (ps *PriceScale) valueToCoordinate(v float64) Coordinate {
	return Coordinate((ps.rng.MaxValue - v) / ps.rng.Span() * (float64(ps.height) - 1))
}

// signedLog10 compresses values of either sign onto a log curve that is
// continuous through zero.
func signedLog10(v float64) float64 {
	switch {
	case v > 0:
		return math.Log10(v + 1)
	case v < 0:
		return -math.Log10(-v + 1)
	default:
		return 0
	}
}

func signedPow10(v float64) float64 {
	switch {
	case v > 0:
		return math.Pow(10, v) - 1
	case v < 0:
		return -(math.Pow(10, -v) - 1)
	default:
		return 0
	}
}
