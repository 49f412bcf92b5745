// Package render defines the boundary between the charting engine and a
// concrete drawing backend. The engine produces geometry value objects with
// resolved pixel coordinates; a backend implements Canvas to realize them.
package render

import (
	"image/color"
	"math"
)

// Point is a resolved pixel position.
type Point struct {
	X float64
	Y float64
}

// Finite reports whether the point can be rendered. Non-finite points are
// skipped by Draw rather than propagated as errors, so a single bad datum
// cannot abort the rest of a frame.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// LineStyle selects the dash pattern of a stroked line.
type LineStyle uint8

const (
	LineSolid LineStyle = iota
	LineDotted
	LineDashed
	LineLargeDashed
	LineSparseDotted
)

// Dashes returns the on/off pattern in pixels, scaled by the line width.
// A nil return means solid.
func (s LineStyle) Dashes(width float64) []float32 {
	w := float32(width)
	switch s {
	case LineDotted:
		return []float32{w, w}
	case LineDashed:
		return []float32{2 * w, 2 * w}
	case LineLargeDashed:
		return []float32{6 * w, 6 * w}
	case LineSparseDotted:
		return []float32{w, 4 * w}
	default:
		return nil
	}
}

// Canvas is the drawing backend contract. Implementations receive only
// finite coordinates; filtering happens in Draw.
type Canvas interface {
	// FillBackground floods the whole surface.
	FillBackground(c color.NRGBA)
	// DrawPolyline strokes a connected sequence of points.
	DrawPolyline(pts []Point, c color.NRGBA, width float64, style LineStyle)
	// FillPolygon fills a closed region described by its outline.
	FillPolygon(pts []Point, c color.NRGBA)
	// FillRect fills the axis-aligned rectangle spanned by min and max.
	FillRect(min, max Point, c color.NRGBA)
	// DrawText renders a label with its top-left corner at the point.
	DrawText(s string, at Point, c color.NRGBA)
	// MeasureText returns the pixel size the label would occupy.
	MeasureText(s string) (w, h float64)
}

// Geometry is the closed set of renderer-ready shapes a pane view can
// produce.
type Geometry interface {
	isGeometry()
	// Translate shifts all coordinates in place, used to move pane-local
	// geometry into chart coordinates.
	Translate(dx, dy float64)
}

// Polyline is a stroked line series.
type Polyline struct {
	Points []Point
	Color  color.NRGBA
	Width  float64
	Style  LineStyle
}

func (*Polyline) isGeometry() {}

func (g *Polyline) Translate(dx, dy float64) {
	translatePoints(g.Points, dx, dy)
}

// Area is a line series with the region down to a baseline filled.
type Area struct {
	Line      []Point
	Baseline  float64
	LineColor color.NRGBA
	FillColor color.NRGBA
	Width     float64
	Style     LineStyle
}

func (*Area) isGeometry() {}

func (g *Area) Translate(dx, dy float64) {
	translatePoints(g.Line, dx, dy)
	g.Baseline += dy
}

// CandleBox is one OHLC bar's resolved pixel geometry. Open, High, Low and
// Close are y coordinates; X is the bar center.
type CandleBox struct {
	X         float64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	HalfWidth float64
	Up        bool
}

func (b CandleBox) finite() bool {
	for _, v := range [...]float64{b.X, b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Candles renders OHLC boxes as filled bodies with high/low wicks.
type Candles struct {
	Boxes     []CandleBox
	UpColor   color.NRGBA
	DownColor color.NRGBA
	WickWidth float64
}

func (*Candles) isGeometry() {}

func (g *Candles) Translate(dx, dy float64) {
	translateBoxes(g.Boxes, dx, dy)
}

// Bars renders OHLC boxes as a vertical range line with open/close ticks.
type Bars struct {
	Boxes     []CandleBox
	UpColor   color.NRGBA
	DownColor color.NRGBA
	LineWidth float64
}

func (*Bars) isGeometry() {}

func (g *Bars) Translate(dx, dy float64) {
	translateBoxes(g.Boxes, dx, dy)
}

// Column is one histogram bar from Top down to Base.
type Column struct {
	X         float64
	Top       float64
	Base      float64
	HalfWidth float64
}

// Histogram renders value columns rising from a base level.
type Histogram struct {
	Columns []Column
	Color   color.NRGBA
}

func (*Histogram) isGeometry() {}

func (g *Histogram) Translate(dx, dy float64) {
	for i := range g.Columns {
		g.Columns[i].X += dx
		g.Columns[i].Top += dy
		g.Columns[i].Base += dy
	}
}

func translatePoints(pts []Point, dx, dy float64) {
	for i := range pts {
		pts[i].X += dx
		pts[i].Y += dy
	}
}

func translateBoxes(boxes []CandleBox, dx, dy float64) {
	for i := range boxes {
		boxes[i].X += dx
		boxes[i].Open += dy
		boxes[i].High += dy
		boxes[i].Low += dy
		boxes[i].Close += dy
	}
}

// Draw realizes a geometry on the canvas, silently skipping any non-finite
// coordinates.
func Draw(c Canvas, g Geometry) {
	switch g := g.(type) {
	case *Polyline:
		drawPolylineRuns(c, g.Points, g.Color, g.Width, g.Style)
	case *Area:
		if math.IsNaN(g.Baseline) || math.IsInf(g.Baseline, 0) {
			return
		}
		line := finitePoints(g.Line)
		if len(line) >= 2 {
			outline := make([]Point, 0, len(line)+2)
			outline = append(outline, line...)
			outline = append(outline,
				Point{X: line[len(line)-1].X, Y: g.Baseline},
				Point{X: line[0].X, Y: g.Baseline},
			)
			c.FillPolygon(outline, g.FillColor)
		}
		drawPolylineRuns(c, g.Line, g.LineColor, g.Width, g.Style)
	case *Candles:
		for _, b := range g.Boxes {
			if !b.finite() {
				continue
			}
			col := g.DownColor
			if b.Up {
				col = g.UpColor
			}
			// Wick spans the full high/low range behind the body.
			c.FillRect(
				Point{X: b.X - g.WickWidth/2, Y: b.High},
				Point{X: b.X + g.WickWidth/2, Y: b.Low},
				col,
			)
			top, bottom := b.Open, b.Close
			if bottom < top {
				top, bottom = bottom, top
			}
			if bottom == top {
				bottom++ // keep doji bodies visible
			}
			c.FillRect(
				Point{X: b.X - b.HalfWidth, Y: top},
				Point{X: b.X + b.HalfWidth, Y: bottom},
				col,
			)
		}
	case *Bars:
		for _, b := range g.Boxes {
			if !b.finite() {
				continue
			}
			col := g.DownColor
			if b.Up {
				col = g.UpColor
			}
			w := g.LineWidth
			c.FillRect(Point{X: b.X - w/2, Y: b.High}, Point{X: b.X + w/2, Y: b.Low}, col)
			c.FillRect(Point{X: b.X - b.HalfWidth, Y: b.Open - w/2}, Point{X: b.X, Y: b.Open + w/2}, col)
			c.FillRect(Point{X: b.X, Y: b.Close - w/2}, Point{X: b.X + b.HalfWidth, Y: b.Close + w/2}, col)
		}
	case *Histogram:
		for _, col := range g.Columns {
			p1 := Point{X: col.X - col.HalfWidth, Y: col.Top}
			p2 := Point{X: col.X + col.HalfWidth, Y: col.Base}
			if !p1.Finite() || !p2.Finite() {
				continue
			}
			if p2.Y < p1.Y {
				p1.Y, p2.Y = p2.Y, p1.Y
			}
			c.FillRect(p1, p2, g.Color)
		}
	}
}

// drawPolylineRuns strokes the maximal finite runs of a point sequence so
// one unrenderable point breaks the line rather than the frame.
func drawPolylineRuns(c Canvas, pts []Point, col color.NRGBA, width float64, style LineStyle) {
	start := -1
	for i, p := range pts {
		if p.Finite() {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= 2 {
			c.DrawPolyline(pts[start:i], col, width, style)
		}
		start = -1
	}
	if start >= 0 && len(pts)-start >= 2 {
		c.DrawPolyline(pts[start:], col, width, style)
	}
}

func finitePoints(pts []Point) []Point {
	out := pts[:0:0]
	for _, p := range pts {
		if p.Finite() {
			out = append(out, p)
		}
	}
	return out
}
