package tickplot

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/charmbracelet/log"

	"github.com/tickplot/tickplot/render"
)

// paintState tracks whether a frame wakeup is already outstanding, so any
// number of invalidations between two paints schedule at most one frame.
type paintState uint8

const (
	paintIdle paintState = iota
	paintScheduled
)

const (
	timeAxisPadding = 8
	axisTextPad     = 4
)

var errDestroyed = errors.New("chart is destroyed")

// Config carries everything a chart needs from its host.
type Config struct {
	// Canvas receives all drawing during RunFrame.
	Canvas render.Canvas
	// RequestFrame asks the host to call RunFrame at the next paint
	// opportunity. It must be cheap and safe to call repeatedly.
	RequestFrame func()
	// Options is the initial configuration; nil selects the defaults.
	Options *ChartOptions
	// Logger is optional; nil discards.
	Logger *log.Logger
}

// paneWidget pairs a pane with its derived views. Widgets are re-synced to
// the pane list on every full update, reusing view state where the series
// survives.
type paneWidget struct {
	pane      *Pane
	views     []*paneView
	priceAxis *priceAxisView
}

func (w *paneWidget) syncViews() {
	existing := make(map[SeriesID]*paneView, len(w.views))
	for _, v := range w.views {
		existing[v.series.id] = v
	}
	views := make([]*paneView, 0, len(w.pane.series))
	for _, s := range w.pane.series {
		if v, ok := existing[s.id]; ok {
			views = append(views, v)
		} else {
			views = append(views, newPaneView(s))
		}
	}
	w.views = views
}

func (w *paneWidget) viewFor(id SeriesID) *paneView {
	for _, v := range w.views {
		if v.series.id == id {
			return v
		}
	}
	return nil
}

// Chart is the controller tying the scales, panes and views together. All
// mutators are cheap: they update model state, record what became stale in
// the pending invalidation mask, and schedule a single frame. The expensive
// work happens once per frame in RunFrame.
//
// A Chart is not safe for concurrent use; hosts call it from their UI loop.
type Chart struct {
	canvas       render.Canvas
	requestFrame func()
	logger       *log.Logger
	opts         ChartOptions

	timeScale *TimeScale
	timeAxis  *timeAxisView
	panes     []*Pane
	widgets   []*paneWidget
	series    map[SeriesID]*Series
	paneOf    map[SeriesID]*Pane
	nextID    SeriesID

	pending   *InvalidationMask
	state     paintState
	destroyed bool

	width          Coordinate
	height         Coordinate
	priceAxisWidth Coordinate
	timeAxisHeight Coordinate

	crosshairX       Coordinate
	crosshairY       Coordinate
	crosshairVisible bool

	lastVisible    IndexRange
	hasLastVisible bool

	onCrosshairMove      func(CrosshairEvent)
	onClick              func(CrosshairEvent)
	onVisibleRangeChange func(IndexRange)
}

// New builds a chart with no panes or series.
func New(cfg Config) (*Chart, error) {
	if cfg.Canvas == nil {
		return nil, errors.New("chart requires a canvas")
	}
	if cfg.RequestFrame == nil {
		return nil, errors.New("chart requires a frame scheduler")
	}
	opts := DefaultChartOptions()
	if cfg.Options != nil {
		opts = *cfg.Options
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ts := NewTimeScale(opts.TimeScale)
	return &Chart{
		canvas:       cfg.Canvas,
		requestFrame: cfg.RequestFrame,
		logger:       logger,
		opts:         opts,
		timeScale:    ts,
		timeAxis:     newTimeAxisView(ts),
		series:       make(map[SeriesID]*Series),
		paneOf:       make(map[SeriesID]*Pane),
	}, nil
}

// Options returns the current configuration.
func (c *Chart) Options() ChartOptions {
	return c.opts
}

// TimeScale returns the shared horizontal scale.
func (c *Chart) TimeScale() *TimeScale {
	return c.timeScale
}

// Panes returns the current panes, top to bottom.
func (c *Chart) Panes() []*Pane {
	return c.panes
}

// SeriesByID resolves a series handle.
func (c *Chart) SeriesByID(id SeriesID) (*Series, bool) {
	s, ok := c.series[id]
	return s, ok
}

// AddSeries creates a series of the given type on the pane at paneIndex.
// paneIndex == len(Panes()) creates a fresh pane below the existing ones.
// Pass DefaultSeriesOptions() as the starting point for opts; a zero-value
// SeriesOptions yields a hidden series.
func (c *Chart) AddSeries(typ SeriesType, opts SeriesOptions, paneIndex int) (SeriesID, error) {
	if c.destroyed {
		return 0, errDestroyed
	}
	if typ >= seriesTypeCount {
		return 0, fmt.Errorf("unknown series type %d", typ)
	}
	if paneIndex < 0 || paneIndex > len(c.panes) {
		return 0, fmt.Errorf("pane index %d out of range [0, %d]", paneIndex, len(c.panes))
	}
	if paneIndex == len(c.panes) {
		c.panes = append(c.panes, newPane(c.opts.PriceScale, 1))
	}
	pane := c.panes[paneIndex]
	id := c.nextID
	c.nextID++
	s := newSeries(id, typ, opts, pane.priceScale)
	pane.addSeries(s)
	c.series[id] = s
	c.paneOf[id] = pane
	c.logger.Debug("series added", "id", id, "type", typ.String(), "pane", paneIndex)
	c.invalidate(c.fullMask())
	return id, nil
}

// RemoveSeries destroys a series. Its pane is removed too when it holds no
// other series. The handle is never reused.
func (c *Chart) RemoveSeries(id SeriesID) error {
	if c.destroyed {
		return errDestroyed
	}
	pane, ok := c.paneOf[id]
	if !ok {
		return fmt.Errorf("unknown series %d", id)
	}
	pane.removeSeries(id)
	delete(c.series, id)
	delete(c.paneOf, id)
	if pane.Empty() {
		for i, p := range c.panes {
			if p == pane {
				c.panes = append(c.panes[:i], c.panes[i+1:]...)
				break
			}
		}
	}
	c.logger.Debug("series removed", "id", id)
	c.invalidate(c.fullMask())
	return nil
}

// AppendBar appends one record to a series. The record's time either matches
// an already-assigned time point exactly or extends the time scale; anything
// older than the newest point is rejected.
func (c *Chart) AppendBar(id SeriesID, bar BarData) error {
	if c.destroyed {
		return errDestroyed
	}
	s, ok := c.series[id]
	if !ok {
		return fmt.Errorf("unknown series %d", id)
	}
	index, ok := c.timeScale.IndexForTime(bar.Time)
	if !ok {
		var err error
		index, err = c.timeScale.AppendTime(bar.Time)
		if err != nil {
			return err
		}
	}
	if err := s.append(index, bar); err != nil {
		return err
	}
	pane := c.paneOf[id]
	if w := c.widgetOf(pane); w != nil {
		if v := w.viewFor(id); v != nil {
			v.update(UpdateData)
		}
	}
	mask := NewInvalidationMask(InvalidateLight)
	mask.InvalidatePane(c.paneIndexOf(pane), PaneInvalidation{
		Level:     InvalidateLight,
		AutoScale: pane.priceScale.AutoScaleEnabled(),
	})
	c.invalidate(mask)
	return nil
}

// ApplyOptions merges a partial configuration update, propagates it to the
// scales, and schedules the invalidation level the change requires.
func (c *Chart) ApplyOptions(patch OptionsPatch) {
	if c.destroyed {
		return
	}
	level := c.opts.apply(patch)
	if level == InvalidateNone {
		return
	}
	ts := c.timeScale
	if patch.BarSpacing != nil {
		ts.SetBarSpacing(c.opts.TimeScale.BarSpacing)
	}
	if patch.RightOffset != nil {
		ts.opts.RightOffset = c.opts.TimeScale.RightOffset
		ts.clampOffset()
	}
	if patch.ScrollPastEdge != nil {
		ts.opts.ScrollPastEdge = c.opts.TimeScale.ScrollPastEdge
		ts.clampOffset()
	}
	if patch.AutoScroll != nil {
		ts.opts.AutoScroll = c.opts.TimeScale.AutoScroll
	}
	for _, p := range c.panes {
		ps := p.priceScale
		if patch.PriceScaleMode != nil {
			ps.SetMode(c.opts.PriceScale.Mode)
		}
		if patch.AutoScale != nil {
			ps.SetAutoScale(c.opts.PriceScale.AutoScale)
		}
		if patch.MarginTop != nil {
			ps.opts.MarginTop = c.opts.PriceScale.MarginTop
		}
		if patch.MarginBottom != nil {
			ps.opts.MarginBottom = c.opts.PriceScale.MarginBottom
		}
	}
	mask := NewInvalidationMask(level)
	if level >= InvalidateFull {
		mask.Merge(c.fullMask())
	}
	c.invalidate(mask)
}

// SetPaneStretch changes the vertical share of one pane.
func (c *Chart) SetPaneStretch(paneIndex int, stretch float64) error {
	if c.destroyed {
		return errDestroyed
	}
	if paneIndex < 0 || paneIndex >= len(c.panes) {
		return fmt.Errorf("pane index %d out of range [0, %d)", paneIndex, len(c.panes))
	}
	c.panes[paneIndex].SetStretchFactor(stretch)
	c.invalidate(c.fullMask())
	return nil
}

// Resize records a new surface size. Equal sizes are ignored unless force is
// set; a forced resize additionally applies the resulting full update
// synchronously instead of waiting for the next frame, which hosts use when
// the surface must be valid before returning.
func (c *Chart) Resize(width, height Coordinate, force bool) {
	if c.destroyed {
		return
	}
	if width == c.width && height == c.height && !force {
		return
	}
	c.width, c.height = width, height
	mask := c.fullMask()
	if force {
		mask.Merge(c.pending)
		c.pending = nil
		c.state = paintIdle
		c.applyMask(mask)
		return
	}
	c.invalidate(mask)
}

// HandleWheel applies a wheel gesture: vertical deltas zoom around ClientX,
// horizontal deltas scroll. Deltas are normalized to pixels first, and one
// wheel notch equals one zoom step.
func (c *Chart) HandleWheel(ev WheelEvent) {
	if c.destroyed || c.timeScale.IsEmpty() {
		return
	}
	if ev.DeltaY != 0 {
		delta := -ev.DeltaMode.pixels(ev.DeltaY) / wheelNotchPixels
		anchor := clamp(ev.ClientX, 0, c.timeScale.Width()-1)
		c.timeScale.Zoom(anchor, delta)
	}
	if ev.DeltaX != 0 {
		c.timeScale.ScrollPixels(Coordinate(ev.DeltaMode.pixels(ev.DeltaX)))
	}
	c.invalidate(c.scrollMask())
}

// Scroll shifts the visible range by a pixel delta; positive moves toward
// newer data.
func (c *Chart) Scroll(dx Coordinate) {
	if c.destroyed {
		return
	}
	c.timeScale.ScrollPixels(dx)
	c.invalidate(c.scrollMask())
}

// Zoom changes bar spacing by delta steps, keeping the data under the anchor
// pixel fixed.
func (c *Chart) Zoom(anchor Coordinate, delta float64) {
	if c.destroyed {
		return
	}
	c.timeScale.Zoom(anchor, delta)
	c.invalidate(c.scrollMask())
}

// FitContent schedules a zoom-to-fit of all data.
func (c *Chart) FitContent() {
	if c.destroyed {
		return
	}
	mask := c.scrollMask()
	mask.SetFitContent()
	c.invalidate(mask)
}

// SetCrosshair moves the crosshair to a chart-space position, firing the
// move handler with the chart state under the pointer.
func (c *Chart) SetCrosshair(x, y Coordinate) {
	if c.destroyed {
		return
	}
	if c.crosshairVisible && x == c.crosshairX && y == c.crosshairY {
		return
	}
	c.crosshairX, c.crosshairY = x, y
	c.crosshairVisible = true
	if c.onCrosshairMove != nil {
		c.onCrosshairMove(c.pointerEvent(x, y))
	}
	c.invalidate(NewInvalidationMask(InvalidateLight))
}

// ClearCrosshair hides the crosshair, firing the move handler with an empty
// event.
func (c *Chart) ClearCrosshair() {
	if c.destroyed || !c.crosshairVisible {
		return
	}
	c.crosshairVisible = false
	if c.onCrosshairMove != nil {
		c.onCrosshairMove(CrosshairEvent{})
	}
	c.invalidate(NewInvalidationMask(InvalidateLight))
}

// Click reports a pointer click at a chart-space position to the click
// handler. Clicks change no chart state.
func (c *Chart) Click(x, y Coordinate) {
	if c.destroyed || c.onClick == nil {
		return
	}
	c.onClick(c.pointerEvent(x, y))
}

// Destroy releases the chart. Every later call is a no-op or returns an
// error; a frame wakeup already in flight finds nothing to do.
func (c *Chart) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.pending = nil
	c.state = paintIdle
	c.panes = nil
	c.widgets = nil
	c.series = nil
	c.paneOf = nil
	c.logger.Debug("chart destroyed")
}

// RunFrame consumes the pending invalidation mask and performs at most one
// paint. Hosts call it from the frame callback RequestFrame asked for; calls
// with nothing pending return immediately.
func (c *Chart) RunFrame() {
	if c.destroyed {
		return
	}
	mask := c.pending
	c.pending = nil
	c.state = paintIdle
	if mask == nil {
		return
	}
	c.applyMask(mask)
}

// RenderFrame is RunFrame for immediate-mode hosts whose surface does not
// persist between frames: pending work is consumed as usual, but a paint
// happens even when nothing is pending.
func (c *Chart) RenderFrame() {
	if c.destroyed {
		return
	}
	mask := c.pending
	c.pending = nil
	c.state = paintIdle
	if mask == nil {
		mask = NewInvalidationMask(InvalidateLight)
	}
	c.applyMask(mask)
}

// invalidate merges work into the pending mask and schedules one frame if
// none is outstanding.
func (c *Chart) invalidate(mask *InvalidationMask) {
	if c.destroyed || mask == nil {
		return
	}
	if c.pending == nil {
		c.pending = NewInvalidationMask(InvalidateNone)
	}
	c.pending.Merge(mask)
	if c.state == paintIdle {
		c.state = paintScheduled
		c.requestFrame()
	}
}

// fullMask builds a full-severity mask with autoscale requested for every
// pane that follows its data.
func (c *Chart) fullMask() *InvalidationMask {
	m := NewInvalidationMask(InvalidateFull)
	for i, p := range c.panes {
		m.InvalidatePane(i, PaneInvalidation{
			Level:     InvalidateFull,
			AutoScale: p.priceScale.AutoScaleEnabled(),
		})
	}
	return m
}

// scrollMask builds the mask for visible-range changes: light severity plus
// autoscale for auto-scaled panes, since the visible extrema moved.
func (c *Chart) scrollMask() *InvalidationMask {
	m := NewInvalidationMask(InvalidateLight)
	for i, p := range c.panes {
		if p.priceScale.AutoScaleEnabled() {
			m.InvalidatePane(i, PaneInvalidation{Level: InvalidateLight, AutoScale: true})
		}
	}
	return m
}

func (c *Chart) paneIndexOf(pane *Pane) int {
	for i, p := range c.panes {
		if p == pane {
			return i
		}
	}
	return -1
}

func (c *Chart) widgetOf(pane *Pane) *paneWidget {
	for _, w := range c.widgets {
		if w.pane == pane {
			return w
		}
	}
	return nil
}

// applyMask performs the deferred work a mask describes: full updates
// re-sync widgets and recompute layout, then fit-content and per-pane
// autoscale requests are applied, and finally the frame is painted once.
func (c *Chart) applyMask(mask *InvalidationMask) {
	level := mask.GlobalLevel()
	if level == InvalidateNone && len(mask.panes) == 0 && !mask.FitContent() {
		return
	}
	if level >= InvalidateFull {
		c.syncWidgets()
		c.layout()
	}
	if mask.FitContent() {
		c.timeScale.FitContent()
	}
	visible, visOK := c.timeScale.VisibleDataRange()
	for i, w := range c.widgets {
		inv := mask.ForPane(i)
		ps := w.pane.priceScale
		if (inv.AutoScale || inv.Level >= InvalidateFull) && ps.AutoScaleEnabled() {
			if visOK {
				w.pane.autoScaleRange(visible)
			} else {
				ps.ClearRange()
			}
		}
		if inv.Level >= InvalidateLight || inv.AutoScale {
			for _, v := range w.views {
				v.update(UpdateGeometry)
			}
			w.priceAxis.update()
		}
	}
	c.timeAxis.update()
	c.paint()
	if visOK && (!c.hasLastVisible || visible != c.lastVisible) {
		c.lastVisible = visible
		c.hasLastVisible = true
		if c.onVisibleRangeChange != nil {
			c.onVisibleRangeChange(visible)
		}
	}
}

// syncWidgets aligns the widget list with the pane list, reusing surviving
// widgets so their cached views carry over.
func (c *Chart) syncWidgets() {
	existing := make(map[*Pane]*paneWidget, len(c.widgets))
	for _, w := range c.widgets {
		existing[w.pane] = w
	}
	widgets := make([]*paneWidget, 0, len(c.panes))
	for _, p := range c.panes {
		w, ok := existing[p]
		if !ok {
			w = &paneWidget{pane: p, priceAxis: newPriceAxisView(p)}
		}
		w.syncViews()
		widgets = append(widgets, w)
	}
	c.widgets = widgets
}

// layout distributes the surface: the time axis takes one text line at the
// bottom, the price axis takes the widest label on the right, and the panes
// split the rest by stretch factor.
func (c *Chart) layout() {
	measure := c.canvas.MeasureText
	if _, h := measure("0"); h > 0 {
		c.timeAxisHeight = Coordinate(h + timeAxisPadding)
	} else {
		c.timeAxisHeight = 0
	}
	if w, _ := measure(defaultTimeFormat(0)); w > 0 {
		c.timeAxis.setLabelWidth(w)
	}

	var axisWidth Coordinate
	for _, w := range c.widgets {
		axisWidth = max(axisWidth, w.priceAxis.optimalWidth(measure))
	}
	c.priceAxisWidth = axisWidth
	if plotWidth := c.width - axisWidth; plotWidth > 0 {
		c.timeScale.SetWidth(plotWidth)
	}

	avail := c.height - c.timeAxisHeight
	var total float64
	for _, p := range c.panes {
		total += p.stretch
	}
	if avail <= 0 || total <= 0 {
		return
	}
	var top Coordinate
	for _, p := range c.panes {
		h := Coordinate(float64(avail) * p.stretch / total)
		p.top = top
		p.height = h
		p.priceScale.SetHeight(h)
		top += h
	}
}

// paint draws the whole surface: background, gridlines, series geometry,
// axis labels, then the crosshair on top.
func (c *Chart) paint() {
	c.canvas.FillBackground(c.opts.Background)
	textColor := c.opts.resolvedTextColor()
	plotWidth := c.timeScale.Width()
	plotHeight := c.height - c.timeAxisHeight

	timeLabels := c.timeAxis.renderLabels()
	for _, l := range timeLabels {
		c.canvas.FillRect(
			render.Point{X: float64(l.Pos), Y: 0},
			render.Point{X: float64(l.Pos) + 1, Y: float64(plotHeight)},
			c.opts.GridColor,
		)
	}

	for _, w := range c.widgets {
		pane := w.pane
		for _, l := range w.priceAxis.renderLabels() {
			y := float64(pane.top + l.Pos)
			c.canvas.FillRect(
				render.Point{X: 0, Y: y},
				render.Point{X: float64(plotWidth), Y: y + 1},
				c.opts.GridColor,
			)
			_, lh := c.canvas.MeasureText(l.Text)
			c.canvas.DrawText(l.Text, render.Point{
				X: float64(plotWidth) + axisTextPad,
				Y: y - lh/2,
			}, textColor)
		}
		for _, v := range w.views {
			g, ok := v.render(c.timeScale, pane.priceScale)
			if !ok {
				continue
			}
			g.Translate(0, float64(pane.top))
			render.Draw(c.canvas, g)
		}
	}

	for _, l := range timeLabels {
		lw, _ := c.canvas.MeasureText(l.Text)
		c.canvas.DrawText(l.Text, render.Point{
			X: float64(l.Pos) - lw/2,
			Y: float64(plotHeight) + axisTextPad/2,
		}, textColor)
	}

	c.paintCrosshair(textColor, plotWidth, plotHeight)
}

// paintCrosshair draws the snapped vertical line plus the free horizontal
// line under the pointer.
func (c *Chart) paintCrosshair(textColor color.NRGBA, plotWidth, plotHeight Coordinate) {
	if !c.crosshairVisible {
		return
	}
	lineColor := textColor
	lineColor.A /= 2
	index, ok := c.timeScale.CoordinateToIndex(c.crosshairX)
	if ok {
		if x, ok := c.timeScale.IndexToCoordinate(index); ok && x.Finite() {
			c.canvas.FillRect(
				render.Point{X: float64(x), Y: 0},
				render.Point{X: float64(x) + 1, Y: float64(plotHeight)},
				lineColor,
			)
		}
	}
	if c.crosshairY >= 0 && c.crosshairY < plotHeight {
		c.canvas.FillRect(
			render.Point{X: 0, Y: float64(c.crosshairY)},
			render.Point{X: float64(plotWidth), Y: float64(c.crosshairY) + 1},
			lineColor,
		)
	}
}

// pointerEvent resolves the chart state under a pointer position. The
// vertical line snaps to the nearest time index; series values come from
// records stored exactly at that index.
func (c *Chart) pointerEvent(x, y Coordinate) CrosshairEvent {
	var ev CrosshairEvent
	index, ok := c.timeScale.CoordinateToIndex(x)
	if !ok {
		return ev
	}
	ev.Point = &render.Point{X: float64(x), Y: float64(y)}
	t, ok := c.timeScale.TimeAt(index)
	if !ok {
		return ev
	}
	i := index
	ev.Index = &i
	ev.Time = &t
	values := make(map[SeriesID]float64, len(c.series))
	for id, s := range c.series {
		if rec, ok := s.data.ValueAt(index); ok {
			values[id] = rec.base(s.typ)
		}
	}
	if len(values) > 0 {
		ev.SeriesValues = values
	}
	return ev
}
