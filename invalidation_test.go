package tickplot

import "testing"

func maskOf(global InvalidationLevel, fit bool, panes map[int]PaneInvalidation) *InvalidationMask {
	m := NewInvalidationMask(global)
	if fit {
		m.SetFitContent()
	}
	for pane, inv := range panes {
		m.InvalidatePane(pane, inv)
	}
	return m
}

func masksEqual(a, b *InvalidationMask, paneCount int) bool {
	if a.GlobalLevel() != b.GlobalLevel() || a.FitContent() != b.FitContent() {
		return false
	}
	for i := 0; i < paneCount; i++ {
		if a.ForPane(i) != b.ForPane(i) {
			return false
		}
	}
	return true
}

// sampleMasks covers the interesting shapes: pure global levels, pane-only
// masks, autoscale-only flags, and fit-content.
func sampleMasks() []*InvalidationMask {
	return []*InvalidationMask{
		maskOf(InvalidateNone, false, nil),
		maskOf(InvalidateLight, false, nil),
		maskOf(InvalidateFull, false, nil),
		maskOf(InvalidateNone, true, nil),
		maskOf(InvalidateNone, false, map[int]PaneInvalidation{
			0: {Level: InvalidateLight, AutoScale: true},
		}),
		maskOf(InvalidateLight, false, map[int]PaneInvalidation{
			1: {Level: InvalidateFull},
			2: {AutoScale: true},
		}),
	}
}

func TestMaskMergeCommutative(t *testing.T) {
	samples := sampleMasks()
	for i := range samples {
		for j := range samples {
			ab := maskOf(InvalidateNone, false, nil)
			ab.Merge(samples[i])
			ab.Merge(samples[j])
			ba := maskOf(InvalidateNone, false, nil)
			ba.Merge(samples[j])
			ba.Merge(samples[i])
			if !masksEqual(ab, ba, 4) {
				t.Errorf("merge of samples %d and %d depends on order", i, j)
			}
		}
	}
}

func TestMaskMergeAssociative(t *testing.T) {
	samples := sampleMasks()
	for i := range samples {
		for j := range samples {
			for k := range samples {
				// (a+b)+c
				left := maskOf(InvalidateNone, false, nil)
				left.Merge(samples[i])
				left.Merge(samples[j])
				left.Merge(samples[k])
				// a+(b+c)
				bc := maskOf(InvalidateNone, false, nil)
				bc.Merge(samples[j])
				bc.Merge(samples[k])
				right := maskOf(InvalidateNone, false, nil)
				right.Merge(samples[i])
				right.Merge(bc)
				if !masksEqual(left, right, 4) {
					t.Errorf("merge of samples %d, %d, %d depends on grouping", i, j, k)
				}
			}
		}
	}
}

func TestMaskMergeIdempotent(t *testing.T) {
	for i, sample := range sampleMasks() {
		once := maskOf(InvalidateNone, false, nil)
		once.Merge(sample)
		twice := maskOf(InvalidateNone, false, nil)
		twice.Merge(sample)
		twice.Merge(sample)
		if !masksEqual(once, twice, 4) {
			t.Errorf("merging sample %d twice differs from merging it once", i)
		}
	}
}

func TestMaskLevelNeverLowered(t *testing.T) {
	m := NewInvalidationMask(InvalidateFull)
	m.Invalidate(InvalidateLight)
	if m.GlobalLevel() != InvalidateFull {
		t.Errorf("a lower level must not mask out a higher one, got %v", m.GlobalLevel())
	}
	m.InvalidatePane(0, PaneInvalidation{Level: InvalidateFull, AutoScale: true})
	m.InvalidatePane(0, PaneInvalidation{Level: InvalidateLight})
	if inv := m.ForPane(0); inv.Level != InvalidateFull || !inv.AutoScale {
		t.Errorf("pane flags must accumulate, got %+v", inv)
	}
}

func TestMaskForPaneInheritsGlobal(t *testing.T) {
	m := NewInvalidationMask(InvalidateLight)
	m.InvalidatePane(2, PaneInvalidation{AutoScale: true})
	if inv := m.ForPane(0); inv.Level != InvalidateLight || inv.AutoScale {
		t.Errorf("pane without an entry should inherit the global level, got %+v", inv)
	}
	if inv := m.ForPane(2); inv.Level != InvalidateLight || !inv.AutoScale {
		t.Errorf("pane entry should combine with the global level, got %+v", inv)
	}
}

func TestMaskFitContentImpliesFull(t *testing.T) {
	m := NewInvalidationMask(InvalidateNone)
	m.SetFitContent()
	if !m.FitContent() || m.GlobalLevel() != InvalidateFull {
		t.Errorf("fit content should raise the mask to full, got %v", m.GlobalLevel())
	}
}
