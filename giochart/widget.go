package giochart

import (
	"image"

	"gioui.org/f32"
	"gioui.org/gesture"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/widget/material"
	"github.com/charmbracelet/log"

	"github.com/tickplot/tickplot"
)

// Widget hosts a chart in a Gio layout tree: vertical scroll gestures zoom
// around the pointer, horizontal ones pan, and hovering drives the
// crosshair.
type Widget struct {
	chart  *tickplot.Chart
	canvas *Canvas

	zoom gesture.Scroll
	pan  gesture.Scroll
	pos  f32.Point
}

// NewWidget builds a widget whose chart redraws through the window's
// invalidate function.
func NewWidget(th *material.Theme, invalidate func(), opts *tickplot.ChartOptions, logger *log.Logger) (*Widget, error) {
	w := &Widget{canvas: NewCanvas(th)}
	chart, err := tickplot.New(tickplot.Config{
		Canvas:       w.canvas,
		RequestFrame: invalidate,
		Options:      opts,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	w.chart = chart
	return w, nil
}

// Chart exposes the hosted controller for data and option updates.
func (w *Widget) Chart() *tickplot.Chart {
	return w.chart
}

func (w *Widget) update(gtx layout.Context) {
	dist := w.zoom.Update(gtx.Metric, gtx.Source, gtx.Now, gesture.Vertical, image.Rect(0, -1e6, 0, 1e6))
	if dist != 0 {
		w.chart.HandleWheel(tickplot.WheelEvent{
			DeltaY:    float64(dist),
			ClientX:   tickplot.Coordinate(w.pos.X),
			DeltaMode: tickplot.DeltaPixel,
		})
	}
	dist = w.pan.Update(gtx.Metric, gtx.Source, gtx.Now, gesture.Horizontal, image.Rect(-1e6, 0, 1e6, 0))
	if dist != 0 {
		w.chart.Scroll(tickplot.Coordinate(dist))
	}
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: w,
			Kinds:  pointer.Enter | pointer.Leave | pointer.Move | pointer.Press,
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Enter, pointer.Move:
			w.pos = pe.Position
			w.chart.SetCrosshair(tickplot.Coordinate(pe.Position.X), tickplot.Coordinate(pe.Position.Y))
		case pointer.Leave, pointer.Cancel:
			w.chart.ClearCrosshair()
		case pointer.Press:
			w.chart.Click(tickplot.Coordinate(pe.Position.X), tickplot.Coordinate(pe.Position.Y))
		}
	}
}

// Layout draws the chart into the available space.
func (w *Widget) Layout(gtx layout.Context) layout.Dimensions {
	w.update(gtx)
	size := gtx.Constraints.Max
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	w.pan.Add(gtx.Ops)
	w.zoom.Add(gtx.Ops)
	event.Op(gtx.Ops, w)

	w.chart.Resize(tickplot.Coordinate(size.X), tickplot.Coordinate(size.Y), false)
	w.canvas.Frame(gtx)
	w.chart.RenderFrame()
	return layout.Dimensions{Size: size}
}
