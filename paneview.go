package tickplot

import (
	"github.com/tickplot/tickplot/render"
)

// UpdateKind tells a view what kind of change occurred.
type UpdateKind uint8

const (
	// UpdateGeometry means scales or styles changed; stored raw items
	// remain valid.
	UpdateGeometry UpdateKind = iota
	// UpdateData means the underlying store changed and raw items must
	// be rebuilt.
	UpdateData
)

// paneView derives renderer-ready geometry for one series within one pane.
// Two independent dirty flags drive lazy recomputation: dataDirty forces a
// rebuild of the raw item window from the store, geomDirty a re-projection
// of the visible subrange through the scales. Both are cleared by render.
type paneView struct {
	series *Series

	dataDirty bool
	geomDirty bool

	// items caches records for a superset of the visible range so small
	// scrolls re-project without touching the store again.
	items      []renderItem
	itemsRange IndexRange

	// projected counts coordinates computed by the last render; tests use
	// it to verify recompute cost tracks the visible window.
	projected int
}

type renderItem struct {
	index  TimeIndex
	record BarData
}

func newPaneView(s *Series) *paneView {
	return &paneView{
		series:    s,
		dataDirty: true,
		geomDirty: true,
	}
}

// update raises the view's dirty flags. Data changes always imply a
// geometry recompute; geometry changes alone leave the item cache valid.
func (v *paneView) update(kind UpdateKind) {
	if kind == UpdateData {
		v.dataDirty = true
	}
	v.geomDirty = true
}

// render lazily resolves the dirty flags and returns geometry for the
// currently visible window. The boolean result distinguishes "nothing
// visible" from stale or not-yet-computed output: consumers must check it
// before drawing.
func (v *paneView) render(ts *TimeScale, ps *PriceScale) (render.Geometry, bool) {
	visible, ok := ts.VisibleDataRange()
	if !ok || ps.IsEmpty() || !v.series.opts.Visible {
		v.dataDirty = false
		v.geomDirty = false
		v.projected = 0
		return nil, false
	}
	if v.dataDirty || !v.covers(visible) {
		v.rebuildItems(visible)
		v.dataDirty = false
		v.geomDirty = true
	}
	v.geomDirty = false
	return v.project(visible, ts, ps)
}

// covers reports whether the cached item window still contains the visible
// range.
func (v *paneView) covers(visible IndexRange) bool {
	return !v.itemsRange.Empty() &&
		visible.From >= v.itemsRange.From && visible.To <= v.itemsRange.To
}

// rebuildItems pulls records for the visible range plus a margin of half a
// window on each side, so partial scrolls stay within the cache.
func (v *paneView) rebuildItems(visible IndexRange) {
	margin := max(TimeIndex(visible.Count()/2), 25)
	from := max(visible.From-margin, 0)
	to := visible.To + margin
	start, end := v.series.data.VisibleRange(from, to)
	v.items = v.items[:0]
	for i := start; i < end; i++ {
		v.items = append(v.items, renderItem{
			index:  v.series.data.IndexAt(i),
			record: v.series.data.RecordAt(i),
		})
	}
	v.itemsRange = IndexRange{From: from, To: to}
}

// project recomputes pixel coordinates for exactly the visible subrange of
// the cached items. Cost is proportional to the visible window, never the
// full stored history.
func (v *paneView) project(visible IndexRange, ts *TimeScale, ps *PriceScale) (render.Geometry, bool) {
	v.projected = 0
	first, _ := v.series.FirstValue()
	opts := v.series.opts

	switch v.series.typ {
	case SeriesLine, SeriesArea:
		pts := make([]render.Point, 0, visible.Count())
		for _, it := range v.items {
			if !visible.Contains(it.index) {
				continue
			}
			x, okX := ts.IndexToCoordinate(it.index)
			y, okY := ps.PriceToCoordinate(it.record.Value, first)
			if !okX || !okY {
				continue
			}
			pts = append(pts, render.Point{X: float64(x), Y: float64(y)})
			v.projected++
		}
		if len(pts) == 0 {
			return nil, false
		}
		if v.series.typ == SeriesLine {
			return &render.Polyline{
				Points: pts,
				Color:  opts.Color,
				Width:  opts.LineWidth,
				Style:  opts.LineStyle,
			}, true
		}
		fill := opts.Color
		fill.A /= 3
		return &render.Area{
			Line:      pts,
			Baseline:  float64(ps.Height() - 1),
			LineColor: opts.Color,
			FillColor: fill,
			Width:     opts.LineWidth,
			Style:     opts.LineStyle,
		}, true

	case SeriesBar, SeriesCandlestick:
		boxes := make([]render.CandleBox, 0, visible.Count())
		halfWidth := max(ts.BarSpacing()*0.4, 0.5)
		for _, it := range v.items {
			if !visible.Contains(it.index) {
				continue
			}
			x, okX := ts.IndexToCoordinate(it.index)
			o, okO := ps.PriceToCoordinate(it.record.Open, first)
			h, okH := ps.PriceToCoordinate(it.record.High, first)
			l, okL := ps.PriceToCoordinate(it.record.Low, first)
			c, okC := ps.PriceToCoordinate(it.record.Close, first)
			if !okX || !okO || !okH || !okL || !okC {
				continue
			}
			boxes = append(boxes, render.CandleBox{
				X:         float64(x),
				Open:      float64(o),
				High:      float64(h),
				Low:       float64(l),
				Close:     float64(c),
				HalfWidth: halfWidth,
				Up:        it.record.Close >= it.record.Open,
			})
			v.projected++
		}
		if len(boxes) == 0 {
			return nil, false
		}
		if v.series.typ == SeriesCandlestick {
			return &render.Candles{
				Boxes:     boxes,
				UpColor:   opts.Color,
				DownColor: opts.DownColor,
				WickWidth: max(opts.LineWidth/2, 1),
			}, true
		}
		return &render.Bars{
			Boxes:     boxes,
			UpColor:   opts.Color,
			DownColor: opts.DownColor,
			LineWidth: opts.LineWidth,
		}, true

	case SeriesHistogram:
		cols := make([]render.Column, 0, visible.Count())
		halfWidth := max(ts.BarSpacing()*0.4, 0.5)
		base, okBase := ps.PriceToCoordinate(opts.Base, first)
		if !okBase {
			return nil, false
		}
		for _, it := range v.items {
			if !visible.Contains(it.index) {
				continue
			}
			x, okX := ts.IndexToCoordinate(it.index)
			top, okY := ps.PriceToCoordinate(it.record.Value, first)
			if !okX || !okY {
				continue
			}
			cols = append(cols, render.Column{
				X:         float64(x),
				Top:       float64(top),
				Base:      float64(base),
				HalfWidth: halfWidth,
			})
			v.projected++
		}
		if len(cols) == 0 {
			return nil, false
		}
		return &render.Histogram{Columns: cols, Color: opts.Color}, true
	}
	return nil, false
}
