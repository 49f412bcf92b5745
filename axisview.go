package tickplot

import (
	"image/color"
	"math"
	"strconv"
	"time"
)

// TickLabel is one renderable axis label with its resolved position along
// the axis (y for price axes, x for time axes).
type TickLabel struct {
	Text string
	Pos  Coordinate
}

// priceAxisView derives the tick labels for one pane's price scale. The
// derived state is recomputed lazily: update marks it invalid, the next
// labels call recomputes.
type priceAxisView struct {
	pane        *Pane
	invalidated bool
	labels      []TickLabel
}

func newPriceAxisView(p *Pane) *priceAxisView {
	return &priceAxisView{pane: p, invalidated: true}
}

func (v *priceAxisView) update() {
	v.invalidated = true
}

// renderLabels returns the current tick labels, recomputing them only when
// the view has been invalidated since the last call.
func (v *priceAxisView) renderLabels() []TickLabel {
	if !v.invalidated {
		return v.labels
	}
	v.invalidated = false
	v.labels = v.labels[:0]

	ps := v.pane.priceScale
	rng, ok := ps.Range()
	if !ok || ps.Height() <= 0 {
		return v.labels
	}
	var first float64
	if len(v.pane.series) > 0 {
		first, _ = v.pane.series[0].FirstValue()
	}
	const minTickGapPx = 40
	maxTicks := int(float64(ps.Height()) / minTickGapPx)
	if maxTicks < 2 {
		maxTicks = 2
	}
	step := niceStep(rng.Span(), maxTicks)
	if step <= 0 {
		return v.labels
	}
	for tick := math.Ceil(rng.MinValue/step) * step; tick <= rng.MaxValue; tick += step {
		y := ps.valueToCoordinate(tick)
		if !y.Finite() {
			continue
		}
		price, ok := ps.InverseTransform(tick, first)
		if !ok {
			continue
		}
		v.labels = append(v.labels, TickLabel{
			Text: formatPrice(price),
			Pos:  y,
		})
	}
	return v.labels
}

// optimalWidth returns the pixel width the axis needs for its widest label.
func (v *priceAxisView) optimalWidth(measure func(string) (w, h float64)) Coordinate {
	const padding = 12
	var widest float64
	for _, l := range v.renderLabels() {
		w, _ := measure(l.Text)
		widest = max(widest, w)
	}
	if widest == 0 {
		return 0
	}
	return Coordinate(widest + padding)
}

// timeAxisView derives tick labels along the shared time scale. Like the
// price axis it recomputes lazily behind an invalidated flag.
type timeAxisView struct {
	scale       *TimeScale
	format      func(unixNanos int64) string
	invalidated bool
	labels      []TickLabel
	labelWidth  float64
}

func newTimeAxisView(ts *TimeScale) *timeAxisView {
	return &timeAxisView{
		scale:       ts,
		format:      defaultTimeFormat,
		invalidated: true,
		labelWidth:  60,
	}
}

func (v *timeAxisView) update() {
	v.invalidated = true
}

// setLabelWidth records the measured width of a representative label so
// tick density can adapt to the text size.
func (v *timeAxisView) setLabelWidth(w float64) {
	if w > 0 && w != v.labelWidth {
		v.labelWidth = w
		v.invalidated = true
	}
}

func (v *timeAxisView) renderLabels() []TickLabel {
	if !v.invalidated {
		return v.labels
	}
	v.invalidated = false
	v.labels = v.labels[:0]

	visible, ok := v.scale.VisibleDataRange()
	if !ok {
		return v.labels
	}
	// The index step is the smallest nice multiple whose pixel distance
	// fits one label plus a gap.
	const gap = 20
	minStep := (v.labelWidth + gap) / v.scale.BarSpacing()
	step := TimeIndex(niceStep(minStep, 1))
	if step < 1 {
		step = 1
	}
	start := (visible.From + step - 1) / step * step
	for i := start; i < visible.To; i += step {
		t, ok := v.scale.TimeAt(i)
		if !ok {
			continue
		}
		x, ok := v.scale.IndexToCoordinate(i)
		if !ok || !x.Finite() {
			continue
		}
		v.labels = append(v.labels, TickLabel{
			Text: v.format(t),
			Pos:  x,
		})
	}
	return v.labels
}

func defaultTimeFormat(unixNanos int64) string {
	return time.Unix(0, unixNanos).UTC().Format("15:04:05")
}

// niceStep returns the smallest value of the form {1,2,5}*10^k that splits
// span into at most maxTicks intervals.
func niceStep(span float64, maxTicks int) float64 {
	if span <= 0 || maxTicks < 1 {
		return 0
	}
	raw := span / float64(maxTicks)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range [...]float64{1, 2, 5, 10} {
		if step := m * mag; step >= raw {
			return step
		}
	}
	return 10 * mag
}

// formatPrice renders a price with precision adapted to its magnitude.
func formatPrice(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1000:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case av >= 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

// ContrastColor picks black or white, whichever contrasts more against the
// given background. The decision uses the relative luminance of the
// linearized sRGB channels.
func ContrastColor(bg color.NRGBA) color.NRGBA {
	lum := 0.2126*linearize(bg.R) + 0.7152*linearize(bg.G) + 0.0722*linearize(bg.B)
	if lum > 0.179 {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

func linearize(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
