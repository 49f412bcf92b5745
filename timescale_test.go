package tickplot

import (
	"math"
	"testing"
)

func newTestScale(t *testing.T, width Coordinate, count int, opts TimeScaleOptions) *TimeScale {
	t.Helper()
	ts := NewTimeScale(opts)
	ts.SetWidth(width)
	for i := 0; i < count; i++ {
		if _, err := ts.AppendTime(int64(i+1) * 1_000_000_000); err != nil {
			t.Fatalf("append time %d: %v", i, err)
		}
	}
	return ts
}

func TestTimeScaleEmpty(t *testing.T) {
	ts := NewTimeScale(TimeScaleOptions{})
	if !ts.IsEmpty() {
		t.Error("a fresh scale should be empty")
	}
	if _, ok := ts.IndexToCoordinate(0); ok {
		t.Error("IndexToCoordinate on an empty scale should report ok=false")
	}
	if _, ok := ts.CoordinateToIndex(10); ok {
		t.Error("CoordinateToIndex on an empty scale should report ok=false")
	}
	if _, ok := ts.VisibleRange(); ok {
		t.Error("VisibleRange on an empty scale should report ok=false")
	}
	ts.SetWidth(100)
	if !ts.IsEmpty() {
		t.Error("a scale with width but no times is still empty")
	}
}

func TestTimeScaleAppendOrdering(t *testing.T) {
	ts := NewTimeScale(TimeScaleOptions{})
	if _, err := ts.AppendTime(100); err != nil {
		t.Fatal(err)
	}
	if _, err := ts.AppendTime(100); err == nil {
		t.Error("appending a duplicate time should be rejected")
	}
	if _, err := ts.AppendTime(50); err == nil {
		t.Error("appending an older time should be rejected")
	}
	if ts.Size() != 1 {
		t.Errorf("rejected appends must not change size, got %d", ts.Size())
	}
}

func TestTimeScaleRoundTrip(t *testing.T) {
	ts := newTestScale(t, 640, 200, TimeScaleOptions{BarSpacing: 6, ScrollPastEdge: true, AutoScroll: true})
	visible, ok := ts.VisibleDataRange()
	if !ok {
		t.Fatal("expected a visible range")
	}
	for i := visible.From; i < visible.To; i++ {
		x, ok := ts.IndexToCoordinate(i)
		if !ok {
			t.Fatalf("IndexToCoordinate(%d) failed", i)
		}
		back, ok := ts.CoordinateToIndex(x)
		if !ok {
			t.Fatalf("CoordinateToIndex(%v) failed", x)
		}
		if back != i {
			t.Errorf("round trip of index %d through %v gave %d", i, x, back)
		}
	}
}

func TestTimeScaleMappingIsPure(t *testing.T) {
	ts := newTestScale(t, 640, 50, TimeScaleOptions{BarSpacing: 7.3, AutoScroll: true})
	first := make([]Coordinate, 50)
	for i := range first {
		first[i], _ = ts.IndexToCoordinate(TimeIndex(i))
	}
	for i := range first {
		again, _ := ts.IndexToCoordinate(TimeIndex(i))
		if again != first[i] {
			t.Errorf("index %d mapped to %v then %v with unchanged state", i, first[i], again)
		}
	}
}

func TestTimeScaleZoomAnchorInvariance(t *testing.T) {
	type testcase struct {
		name   string
		anchor Coordinate
		delta  float64
	}
	for _, tc := range []testcase{
		{name: "zoom in at center", anchor: 320, delta: 1},
		{name: "zoom out at center", anchor: 320, delta: -1},
		{name: "zoom in near left edge", anchor: 10, delta: 2},
		{name: "zoom in near right edge", anchor: 630, delta: 2},
		{name: "fractional step", anchor: 200, delta: 0.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestScale(t, 640, 500, TimeScaleOptions{BarSpacing: 6, ScrollPastEdge: true})
			before, ok := ts.coordinateToFloatIndex(tc.anchor)
			if !ok {
				t.Fatal("anchor not resolvable before zoom")
			}
			ts.Zoom(tc.anchor, tc.delta)
			after, ok := ts.coordinateToFloatIndex(tc.anchor)
			if !ok {
				t.Fatal("anchor not resolvable after zoom")
			}
			if math.Abs(after-before) > 1e-9 {
				t.Errorf("anchor drifted from index %v to %v", before, after)
			}
		})
	}
}

func TestTimeScaleZoomClampsSpacing(t *testing.T) {
	ts := newTestScale(t, 640, 100, TimeScaleOptions{
		BarSpacing:     6,
		MinBarSpacing:  1,
		MaxBarSpacing:  20,
		ScrollPastEdge: true,
	})
	ts.Zoom(320, 100)
	if ts.BarSpacing() != 20 {
		t.Errorf("spacing should clamp at max 20, got %v", ts.BarSpacing())
	}
	ts.Zoom(320, -100)
	if ts.BarSpacing() != 1 {
		t.Errorf("spacing should clamp at min 1, got %v", ts.BarSpacing())
	}
}

func TestTimeScaleScrollClamping(t *testing.T) {
	// 100 bars at spacing 6 cover 600px, just under the 640px plot: the
	// data is narrower than the view, so scrolling must not move at all.
	narrow := newTestScale(t, 640, 100, TimeScaleOptions{BarSpacing: 6})
	beforeRange, _ := narrow.VisibleDataRange()
	narrow.ScrollPixels(-10_000)
	afterRange, _ := narrow.VisibleDataRange()
	if beforeRange != afterRange {
		t.Errorf("scrolling narrow data moved the view from %+v to %+v", beforeRange, afterRange)
	}

	// 1000 bars overflow the plot; scrolling far left must stop with the
	// first bar pinned at the left edge, never showing a void before it.
	wide := newTestScale(t, 640, 1000, TimeScaleOptions{BarSpacing: 6})
	wide.ScrollPixels(-1_000_000)
	visible, ok := wide.VisibleDataRange()
	if !ok {
		t.Fatal("expected a visible range after clamped scroll")
	}
	if visible.From != 0 {
		t.Errorf("leftmost visible index = %d, want 0 after clamped scroll", visible.From)
	}
	x, _ := wide.IndexToCoordinate(0)
	if x < 0 || float64(x) > 1 {
		t.Errorf("first bar should sit at the left plot edge, got x=%v", x)
	}

	// And far right must stop with the last bar at the right edge.
	wide.ScrollPixels(1_000_000)
	x, _ = wide.IndexToCoordinate(999)
	if math.Abs(float64(x)-639) > 1e-9 {
		t.Errorf("last bar should sit at the right plot edge, got x=%v", x)
	}
}

func TestTimeScaleScrollPastEdge(t *testing.T) {
	ts := newTestScale(t, 640, 1000, TimeScaleOptions{BarSpacing: 6, ScrollPastEdge: true, AutoScroll: true})
	ts.ScrollPixels(6000)
	if _, ok := ts.VisibleDataRange(); ok {
		t.Error("scrolling 1000 bars past the newest should leave no data visible")
	}
	if _, ok := ts.VisibleRange(); !ok {
		t.Error("the logical visible range still exists past the edge")
	}
}

func TestTimeScaleAutoScroll(t *testing.T) {
	t.Run("sticks to right edge", func(t *testing.T) {
		ts := newTestScale(t, 640, 200, TimeScaleOptions{BarSpacing: 6, AutoScroll: true})
		last := TimeIndex(199)
		xBefore, _ := ts.IndexToCoordinate(last)
		idx, err := ts.AppendTime(10_000_000_000_000)
		if err != nil {
			t.Fatal(err)
		}
		xNew, _ := ts.IndexToCoordinate(idx)
		if xNew != xBefore {
			t.Errorf("newest bar should take the right-edge slot, got x=%v want %v", xNew, xBefore)
		}
	})
	t.Run("preserves position when scrolled away", func(t *testing.T) {
		ts := newTestScale(t, 640, 200, TimeScaleOptions{BarSpacing: 6, AutoScroll: true})
		ts.ScrollPixels(-120)
		anchor := TimeIndex(100)
		xBefore, _ := ts.IndexToCoordinate(anchor)
		if _, err := ts.AppendTime(10_000_000_000_000); err != nil {
			t.Fatal(err)
		}
		xAfter, _ := ts.IndexToCoordinate(anchor)
		if math.Abs(float64(xAfter-xBefore)) > 1e-9 {
			t.Errorf("append while scrolled away moved bar %d from %v to %v", anchor, xBefore, xAfter)
		}
	})
}

func TestTimeScaleFitContent(t *testing.T) {
	ts := newTestScale(t, 640, 1000, TimeScaleOptions{BarSpacing: 6, MinBarSpacing: 0.1})
	ts.FitContent()
	visible, ok := ts.VisibleDataRange()
	if !ok {
		t.Fatal("expected a visible range after fit")
	}
	if visible.From != 0 || visible.To != 1000 {
		t.Errorf("fit content should show all 1000 bars, got [%d, %d)", visible.From, visible.To)
	}
}

func TestTimeScaleIndexForTime(t *testing.T) {
	ts := newTestScale(t, 640, 10, TimeScaleOptions{})
	if i, ok := ts.IndexForTime(3_000_000_000); !ok || i != 2 {
		t.Errorf("IndexForTime(3s) = (%d, %v), want (2, true)", i, ok)
	}
	if _, ok := ts.IndexForTime(999); ok {
		t.Error("IndexForTime of an unassigned time should report ok=false")
	}
}
