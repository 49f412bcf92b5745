package tickplot

// Pane is a horizontal slice of the chart. It owns one primary price scale
// shared by all of its series and a stretch factor controlling its share of
// the total vertical space.
type Pane struct {
	priceScale *PriceScale
	series     []*Series
	stretch    float64

	// layout results, pane-local; set by the controller on full updates.
	top    Coordinate
	height Coordinate
}

func newPane(opts PriceScaleOptions, stretch float64) *Pane {
	if stretch <= 0 {
		stretch = 1
	}
	return &Pane{
		priceScale: NewPriceScale(opts),
		stretch:    stretch,
	}
}

// PriceScale returns the pane's primary price scale.
func (p *Pane) PriceScale() *PriceScale {
	return p.priceScale
}

// StretchFactor returns the pane's share weight of vertical space.
func (p *Pane) StretchFactor() float64 {
	return p.stretch
}

// SetStretchFactor updates the share weight. Non-positive values are
// ignored.
func (p *Pane) SetStretchFactor(f float64) {
	if f > 0 {
		p.stretch = f
	}
}

// Series returns the series attached to this pane, oldest first.
func (p *Pane) Series() []*Series {
	return p.series
}

// Empty reports whether no series remain on the pane.
func (p *Pane) Empty() bool {
	return len(p.series) == 0
}

func (p *Pane) addSeries(s *Series) {
	p.series = append(p.series, s)
}

func (p *Pane) removeSeries(id SeriesID) bool {
	for i, s := range p.series {
		if s.id == id {
			p.series = append(p.series[:i], p.series[i+1:]...)
			return true
		}
	}
	return false
}

// autoScaleRange recomputes the pane's price range from the data visible in
// the given index window. When no series has visible data the scale is
// cleared so dependent queries report empty instead of reusing a stale
// transform.
func (p *Pane) autoScaleRange(visible IndexRange) {
	var (
		lo, hi float64
		any    bool
	)
	for _, s := range p.series {
		rawMin, rawMax, ok := s.data.MinMax(visible.From, visible.To, s.typ)
		if !ok {
			continue
		}
		first, _ := s.FirstValue()
		tMin, okMin := p.priceScale.Transform(rawMin, first)
		tMax, okMax := p.priceScale.Transform(rawMax, first)
		if !okMin || !okMax {
			continue
		}
		if !any {
			lo, hi = tMin, tMax
			any = true
		} else {
			lo = min(lo, tMin)
			hi = max(hi, tMax)
		}
	}
	if !any {
		p.priceScale.ClearRange()
		return
	}
	p.priceScale.SetRangeFromData(lo, hi)
}
