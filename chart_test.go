package tickplot

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickplot/tickplot/render"
)

// recordingCanvas counts draw calls; one FillBackground is one paint.
type recordingCanvas struct {
	paints    int
	polylines int
	rects     int
	texts     []string
}

func (c *recordingCanvas) FillBackground(color.NRGBA) { c.paints++ }

func (c *recordingCanvas) DrawPolyline([]render.Point, color.NRGBA, float64, render.LineStyle) {
	c.polylines++
}

func (c *recordingCanvas) FillPolygon([]render.Point, color.NRGBA) {}

func (c *recordingCanvas) FillRect(render.Point, render.Point, color.NRGBA) { c.rects++ }

func (c *recordingCanvas) DrawText(s string, _ render.Point, _ color.NRGBA) {
	c.texts = append(c.texts, s)
}

func (c *recordingCanvas) MeasureText(s string) (float64, float64) {
	return float64(8 * len(s)), 12
}

type chartHarness struct {
	chart  *Chart
	canvas *recordingCanvas
	frames int
}

func newChartHarness(t *testing.T) *chartHarness {
	t.Helper()
	h := &chartHarness{canvas: &recordingCanvas{}}
	chart, err := New(Config{
		Canvas:       h.canvas,
		RequestFrame: func() { h.frames++ },
	})
	require.NoError(t, err)
	h.chart = chart
	h.chart.Resize(800, 600, true)
	return h
}

func (h *chartHarness) appendLinear(t *testing.T, id SeriesID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := h.chart.AppendBar(id, BarData{
			Time:  int64(i+1) * 1_000_000_000,
			Value: float64(i),
		})
		require.NoError(t, err)
	}
}

func TestChartRequiresCanvasAndScheduler(t *testing.T) {
	_, err := New(Config{RequestFrame: func() {}})
	assert.Error(t, err)
	_, err = New(Config{Canvas: &recordingCanvas{}})
	assert.Error(t, err)
}

func TestChartCoalescesInvalidations(t *testing.T) {
	h := newChartHarness(t)
	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.chart.RunFrame()

	framesBefore := h.frames
	paintsBefore := h.canvas.paints

	// Many logical changes within one frame window.
	h.appendLinear(t, id, 50)
	h.chart.Scroll(-10)
	h.chart.Zoom(400, 1)

	assert.Equal(t, framesBefore+1, h.frames, "all changes inside one frame window must schedule exactly one wakeup")
	assert.Equal(t, paintsBefore, h.canvas.paints, "no paint may happen before RunFrame")

	h.chart.RunFrame()
	assert.Equal(t, paintsBefore+1, h.canvas.paints, "one frame paints exactly once")

	// Nothing pending: the next frame is a no-op.
	h.chart.RunFrame()
	assert.Equal(t, paintsBefore+1, h.canvas.paints)
}

func TestChartCoalescedFrameMatchesFinalState(t *testing.T) {
	h := newChartHarness(t)
	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.appendLinear(t, id, 100)
	h.chart.RunFrame()

	// Apply scroll and zoom in one frame window, paint, and compare the
	// scale state against applying them step by step with a paint each.
	h.chart.Scroll(-30)
	h.chart.Zoom(200, -1)
	h.chart.RunFrame()
	coalescedSpacing := h.chart.timeScale.BarSpacing()
	coalescedVisible, _ := h.chart.timeScale.VisibleDataRange()

	h2 := newChartHarness(t)
	id2, err := h2.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h2.appendLinear(t, id2, 100)
	h2.chart.RunFrame()
	h2.chart.Scroll(-30)
	h2.chart.RunFrame()
	h2.chart.Zoom(200, -1)
	h2.chart.RunFrame()

	assert.Equal(t, h2.chart.timeScale.BarSpacing(), coalescedSpacing)
	stepVisible, _ := h2.chart.timeScale.VisibleDataRange()
	assert.Equal(t, stepVisible, coalescedVisible)
}

func TestChartAppendBar(t *testing.T) {
	h := newChartHarness(t)
	id, err := h.chart.AddSeries(SeriesCandlestick, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)

	require.NoError(t, h.chart.AppendBar(id, BarData{Time: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5}))
	require.NoError(t, h.chart.AppendBar(id, BarData{Time: 2000, Open: 1.5, High: 3, Low: 1, Close: 2}))

	assert.Error(t, h.chart.AppendBar(id, BarData{Time: 1500}), "times older than the newest are rejected")
	assert.Error(t, h.chart.AppendBar(SeriesID(99), BarData{Time: 3000}), "unknown series handles are rejected")

	s, ok := h.chart.SeriesByID(id)
	require.True(t, ok)
	assert.Equal(t, 2, s.Data().Size())
}

func TestChartSharedTimeAxis(t *testing.T) {
	h := newChartHarness(t)
	a, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	b, err := h.chart.AddSeries(SeriesHistogram, SeriesOptions{Visible: true}, 1)
	require.NoError(t, err)

	// Both series append the same timestamp; it must resolve to one index.
	require.NoError(t, h.chart.AppendBar(a, BarData{Time: 1000, Value: 1}))
	require.NoError(t, h.chart.AppendBar(b, BarData{Time: 1000, Value: 2}))
	assert.Equal(t, 1, h.chart.timeScale.Size(), "equal times share one index")

	require.NoError(t, h.chart.AppendBar(b, BarData{Time: 2000, Value: 3}))
	assert.Equal(t, 2, h.chart.timeScale.Size())
}

func TestChartPaneLifecycle(t *testing.T) {
	h := newChartHarness(t)
	a, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	b, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 1)
	require.NoError(t, err)
	require.Len(t, h.chart.Panes(), 2)

	_, err = h.chart.AddSeries(SeriesLine, SeriesOptions{}, 5)
	assert.Error(t, err, "pane indices beyond len(panes) are invalid")

	require.NoError(t, h.chart.RemoveSeries(b))
	assert.Len(t, h.chart.Panes(), 1, "an emptied pane is pruned")

	require.NoError(t, h.chart.RemoveSeries(a))
	assert.Empty(t, h.chart.Panes())
	assert.Error(t, h.chart.RemoveSeries(a), "handles are never reused")
}

func TestChartForcedResizePaintsSynchronously(t *testing.T) {
	h := newChartHarness(t)
	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.appendLinear(t, id, 10)
	h.chart.RunFrame()

	paints := h.canvas.paints
	h.chart.Resize(1024, 768, true)
	assert.Equal(t, paints+1, h.canvas.paints, "forced resize paints without waiting for a frame")

	h.chart.Resize(1024, 768, false)
	h.chart.RunFrame()
	assert.Equal(t, paints+1, h.canvas.paints, "unchanged unforced resize is a no-op")
}

func TestChartDestroy(t *testing.T) {
	h := newChartHarness(t)
	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.appendLinear(t, id, 10)

	h.chart.Destroy()
	paints := h.canvas.paints

	// A frame wakeup already in flight finds nothing to do.
	h.chart.RunFrame()
	assert.Equal(t, paints, h.canvas.paints)

	assert.ErrorIs(t, h.chart.AppendBar(id, BarData{Time: 99_000_000_000}), errDestroyed)
	_, err = h.chart.AddSeries(SeriesLine, SeriesOptions{}, 0)
	assert.ErrorIs(t, err, errDestroyed)
	h.chart.Destroy() // idempotent
}

func TestChartVisibleRangeHandler(t *testing.T) {
	h := newChartHarness(t)
	var fired []IndexRange
	h.chart.SetVisibleRangeHandler(func(r IndexRange) { fired = append(fired, r) })

	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.appendLinear(t, id, 300)
	h.chart.RunFrame()
	require.NotEmpty(t, fired)

	// Repainting without moving the view must not re-fire.
	n := len(fired)
	h.chart.SetCrosshair(100, 100)
	h.chart.RunFrame()
	assert.Len(t, fired, n)

	h.chart.Scroll(-50)
	h.chart.RunFrame()
	assert.Len(t, fired, n+1)
}

func TestChartCrosshairEvents(t *testing.T) {
	h := newChartHarness(t)
	var events []CrosshairEvent
	h.chart.SetCrosshairMoveHandler(func(ev CrosshairEvent) { events = append(events, ev) })

	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.appendLinear(t, id, 100)
	h.chart.RunFrame()

	width := h.chart.timeScale.Width()
	h.chart.SetCrosshair(width-1, 50)
	require.Len(t, events, 1)
	ev := events[0]
	require.NotNil(t, ev.Point)
	require.NotNil(t, ev.Index)
	require.NotNil(t, ev.Time)
	assert.Equal(t, TimeIndex(99), *ev.Index, "crosshair at the right edge snaps to the newest bar")
	assert.Equal(t, float64(99), ev.SeriesValues[id])

	h.chart.ClearCrosshair()
	require.Len(t, events, 2)
	assert.Nil(t, events[1].Point, "clearing reports an empty event")
}

func TestChartApplyOptions(t *testing.T) {
	h := newChartHarness(t)
	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.appendLinear(t, id, 10)
	h.chart.RunFrame()

	spacing := 12.0
	mode := PriceScaleLogarithmic
	h.chart.ApplyOptions(OptionsPatch{BarSpacing: &spacing, PriceScaleMode: &mode})
	assert.Equal(t, 12.0, h.chart.timeScale.BarSpacing())
	assert.Equal(t, PriceScaleLogarithmic, h.chart.Panes()[0].PriceScale().Mode())

	paints := h.canvas.paints
	h.chart.RunFrame()
	assert.Equal(t, paints+1, h.canvas.paints, "an options change schedules a repaint")

	// An empty patch schedules nothing.
	frames := h.frames
	h.chart.ApplyOptions(OptionsPatch{})
	assert.Equal(t, frames, h.frames)
}

func TestChartFitContent(t *testing.T) {
	h := newChartHarness(t)
	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.appendLinear(t, id, 1000)
	h.chart.RunFrame()

	h.chart.FitContent()
	h.chart.RunFrame()
	visible, ok := h.chart.timeScale.VisibleDataRange()
	require.True(t, ok)
	assert.Equal(t, IndexRange{From: 0, To: 1000}, visible)
}

func TestChartAutoScaleFollowsVisibleData(t *testing.T) {
	h := newChartHarness(t)
	id, err := h.chart.AddSeries(SeriesLine, SeriesOptions{Visible: true}, 0)
	require.NoError(t, err)
	h.appendLinear(t, id, 500)
	h.chart.RunFrame()

	ps := h.chart.Panes()[0].PriceScale()
	rngAtTail, ok := ps.Range()
	require.True(t, ok)

	// Scroll far into older, lower-valued data: the auto-scaled range must
	// follow downward.
	h.chart.Scroll(-2000)
	h.chart.RunFrame()
	rngScrolled, ok := ps.Range()
	require.True(t, ok)
	assert.Less(t, rngScrolled.MaxValue, rngAtTail.MaxValue)
}
