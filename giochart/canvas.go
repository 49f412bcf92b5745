// Package giochart hosts the charting engine in a Gio application: a Canvas
// realizing engine geometry as Gio operations and a Widget wiring gestures
// and the frame lifecycle.
package giochart

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"
	"gioui.org/x/stroke"

	"github.com/tickplot/tickplot/render"
)

// Canvas realizes engine geometry as Gio operations. Frame must install the
// current layout context before the chart paints; draws without one are
// dropped.
type Canvas struct {
	th    *material.Theme
	gtx   layout.Context
	valid bool
}

func NewCanvas(th *material.Theme) *Canvas {
	return &Canvas{th: th}
}

// Frame installs the layout context for the coming paint.
func (c *Canvas) Frame(gtx layout.Context) {
	c.gtx = gtx
	c.valid = true
}

func (c *Canvas) FillBackground(col color.NRGBA) {
	if !c.valid {
		return
	}
	paint.FillShape(c.gtx.Ops, col, clip.Rect{Max: c.gtx.Constraints.Max}.Op())
}

func (c *Canvas) DrawPolyline(pts []render.Point, col color.NRGBA, width float64, style render.LineStyle) {
	if !c.valid || len(pts) < 2 {
		return
	}
	segments := make([]stroke.Segment, 0, len(pts))
	segments = append(segments, stroke.MoveTo(f32.Pt(float32(pts[0].X), float32(pts[0].Y))))
	for _, p := range pts[1:] {
		segments = append(segments, stroke.LineTo(f32.Pt(float32(p.X), float32(p.Y))))
	}
	s := stroke.Stroke{
		Path:  stroke.Path{Segments: segments},
		Width: float32(width),
	}
	if dashes := style.Dashes(width); dashes != nil {
		s.Dashes.Dashes = dashes
	}
	stack := s.Op(c.gtx.Ops).Push(c.gtx.Ops)
	paint.Fill(c.gtx.Ops, col)
	stack.Pop()
}

func (c *Canvas) FillPolygon(pts []render.Point, col color.NRGBA) {
	if !c.valid || len(pts) < 3 {
		return
	}
	var p clip.Path
	p.Begin(c.gtx.Ops)
	p.MoveTo(f32.Pt(float32(pts[0].X), float32(pts[0].Y)))
	for _, pt := range pts[1:] {
		p.LineTo(f32.Pt(float32(pt.X), float32(pt.Y)))
	}
	p.Close()
	stack := clip.Outline{Path: p.End()}.Op().Push(c.gtx.Ops)
	paint.Fill(c.gtx.Ops, col)
	stack.Pop()
}

func (c *Canvas) FillRect(min, max render.Point, col color.NRGBA) {
	if !c.valid {
		return
	}
	r := image.Rect(
		int(math.Round(min.X)), int(math.Round(min.Y)),
		int(math.Round(max.X)), int(math.Round(max.Y)),
	)
	// Hairlines round to zero extent; keep them one pixel wide.
	if r.Dx() == 0 {
		r.Max.X++
	}
	if r.Dy() == 0 {
		r.Max.Y++
	}
	paint.FillShape(c.gtx.Ops, col, clip.Rect(r).Op())
}

func (c *Canvas) DrawText(s string, at render.Point, col color.NRGBA) {
	if !c.valid {
		return
	}
	gtx := c.gtx
	gtx.Constraints.Min = image.Point{}
	label := material.Body2(c.th, s)
	label.Color = col
	label.MaxLines = 1
	macro := op.Record(gtx.Ops)
	label.Layout(gtx)
	call := macro.Stop()
	stack := op.Offset(image.Pt(int(math.Round(at.X)), int(math.Round(at.Y)))).Push(gtx.Ops)
	call.Add(gtx.Ops)
	stack.Pop()
}

func (c *Canvas) MeasureText(s string) (w, h float64) {
	if !c.valid {
		return 0, 0
	}
	gtx := c.gtx
	gtx.Constraints.Min = image.Point{}
	label := material.Body2(c.th, s)
	label.MaxLines = 1
	macro := op.Record(gtx.Ops)
	dims := label.Layout(gtx)
	_ = macro.Stop()
	return float64(dims.Size.X), float64(dims.Size.Y)
}
