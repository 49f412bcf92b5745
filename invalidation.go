package tickplot

// InvalidationLevel describes how much redraw work a change requires.
type InvalidationLevel uint8

const (
	// InvalidateNone requires no work.
	InvalidateNone InvalidationLevel = iota
	// InvalidateLight refreshes axis formatting and repaints without
	// structural changes.
	InvalidateLight
	// InvalidateFull re-syncs pane widgets, recomputes layout, and
	// repaints everything.
	InvalidateFull
)

func (l InvalidationLevel) String() string {
	switch l {
	case InvalidateNone:
		return "none"
	case InvalidateLight:
		return "light"
	case InvalidateFull:
		return "full"
	default:
		return "unknown"
	}
}

// PaneInvalidation is the pending work for a single pane.
type PaneInvalidation struct {
	Level     InvalidationLevel
	AutoScale bool
}

func (p PaneInvalidation) merge(other PaneInvalidation) PaneInvalidation {
	return PaneInvalidation{
		Level:     max(p.Level, other.Level),
		AutoScale: p.AutoScale || other.AutoScale,
	}
}

// InvalidationMask accumulates redraw requests raised between two paint
// opportunities. Merging is associative, commutative, and idempotent, so
// any number of logical events arriving within one frame collapse into a
// single mask that, applied once, produces the same final visual state as
// applying each request in order.
type InvalidationMask struct {
	global     InvalidationLevel
	panes      map[int]PaneInvalidation
	fitContent bool
}

// NewInvalidationMask returns a mask with the given global severity.
func NewInvalidationMask(level InvalidationLevel) *InvalidationMask {
	return &InvalidationMask{global: level}
}

// GlobalLevel returns the mask-wide severity.
func (m *InvalidationMask) GlobalLevel() InvalidationLevel {
	return m.global
}

// Invalidate raises the global severity. Lower levels never mask out
// higher ones.
func (m *InvalidationMask) Invalidate(level InvalidationLevel) {
	m.global = max(m.global, level)
}

// InvalidatePane records pane-specific work.
func (m *InvalidationMask) InvalidatePane(pane int, inv PaneInvalidation) {
	if m.panes == nil {
		m.panes = make(map[int]PaneInvalidation)
	}
	m.panes[pane] = m.panes[pane].merge(inv)
}

// SetFitContent requests that the visible time range span all data.
func (m *InvalidationMask) SetFitContent() {
	m.fitContent = true
	m.Invalidate(InvalidateFull)
}

// FitContent reports whether a fit-content pass is pending.
func (m *InvalidationMask) FitContent() bool {
	return m.fitContent
}

// ForPane extracts pane-specific state. Panes without explicit entries
// default to the global severity so no pane is ever under-invalidated
// relative to the mask as a whole.
func (m *InvalidationMask) ForPane(pane int) PaneInvalidation {
	inv := m.panes[pane]
	inv.Level = max(inv.Level, m.global)
	return inv
}

// Merge folds another mask into this one: maximum severity, union of
// per-pane flags, OR of fit-content.
func (m *InvalidationMask) Merge(other *InvalidationMask) {
	if other == nil {
		return
	}
	m.global = max(m.global, other.global)
	m.fitContent = m.fitContent || other.fitContent
	for pane, inv := range other.panes {
		m.InvalidatePane(pane, inv)
	}
}
