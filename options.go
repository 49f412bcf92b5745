package tickplot

import "image/color"

// ChartOptions is the full, validated configuration of a chart.
type ChartOptions struct {
	Background color.NRGBA
	// TextColor overrides the label color. When nil the color is derived
	// from the background luminance via ContrastColor.
	TextColor *color.NRGBA
	GridColor color.NRGBA

	TimeScale  TimeScaleOptions
	PriceScale PriceScaleOptions
}

// DefaultChartOptions returns the configuration used when hosts supply
// nothing.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Background: color.NRGBA{R: 0x16, G: 0x1a, B: 0x1e, A: 0xff},
		GridColor:  color.NRGBA{R: 0x2a, G: 0x2e, B: 0x39, A: 0xff},
		TimeScale: TimeScaleOptions{
			BarSpacing:    6,
			MinBarSpacing: 0.5,
			MaxBarSpacing: 100,
			AutoScroll:    true,
		},
		PriceScale: PriceScaleOptions{
			AutoScale:    true,
			MarginTop:    0.1,
			MarginBottom: 0.1,
		},
	}
}

// resolvedTextColor returns the effective label color.
func (o ChartOptions) resolvedTextColor() color.NRGBA {
	if o.TextColor != nil {
		return *o.TextColor
	}
	return ContrastColor(o.Background)
}

// OptionsPatch is a partial configuration update. Nil fields are left
// unchanged; present fields are validated defensively — out-of-range values
// are clamped or ignored so a malformed patch can never crash the render
// loop.
type OptionsPatch struct {
	Background *color.NRGBA
	TextColor  *color.NRGBA
	GridColor  *color.NRGBA

	BarSpacing     *float64
	RightOffset    *float64
	ScrollPastEdge *bool
	AutoScroll     *bool

	PriceScaleMode *PriceScaleMode
	AutoScale      *bool
	MarginTop      *float64
	MarginBottom   *float64
}

// apply merges the patch into the options and reports the invalidation
// level the change requires: cosmetic changes are Light, anything touching
// scales or layout is Full.
func (o *ChartOptions) apply(p OptionsPatch) InvalidationLevel {
	level := InvalidateNone
	if p.Background != nil && *p.Background != o.Background {
		o.Background = *p.Background
		level = max(level, InvalidateLight)
	}
	if p.TextColor != nil {
		c := *p.TextColor
		o.TextColor = &c
		level = max(level, InvalidateLight)
	}
	if p.GridColor != nil && *p.GridColor != o.GridColor {
		o.GridColor = *p.GridColor
		level = max(level, InvalidateLight)
	}
	if p.BarSpacing != nil && *p.BarSpacing > 0 {
		o.TimeScale.BarSpacing = clamp(*p.BarSpacing, o.TimeScale.MinBarSpacing, o.TimeScale.MaxBarSpacing)
		level = max(level, InvalidateFull)
	}
	if p.RightOffset != nil && *p.RightOffset >= 0 {
		o.TimeScale.RightOffset = *p.RightOffset
		level = max(level, InvalidateFull)
	}
	if p.ScrollPastEdge != nil && *p.ScrollPastEdge != o.TimeScale.ScrollPastEdge {
		o.TimeScale.ScrollPastEdge = *p.ScrollPastEdge
		level = max(level, InvalidateFull)
	}
	if p.AutoScroll != nil && *p.AutoScroll != o.TimeScale.AutoScroll {
		o.TimeScale.AutoScroll = *p.AutoScroll
		level = max(level, InvalidateLight)
	}
	if p.PriceScaleMode != nil && *p.PriceScaleMode < priceScaleModeCount && *p.PriceScaleMode != o.PriceScale.Mode {
		o.PriceScale.Mode = *p.PriceScaleMode
		level = max(level, InvalidateFull)
	}
	if p.AutoScale != nil && *p.AutoScale != o.PriceScale.AutoScale {
		o.PriceScale.AutoScale = *p.AutoScale
		level = max(level, InvalidateFull)
	}
	if p.MarginTop != nil && *p.MarginTop >= 0 {
		o.PriceScale.MarginTop = clamp(*p.MarginTop, 0, 0.4)
		level = max(level, InvalidateFull)
	}
	if p.MarginBottom != nil && *p.MarginBottom >= 0 {
		o.PriceScale.MarginBottom = clamp(*p.MarginBottom, 0, 0.4)
		level = max(level, InvalidateFull)
	}
	return level
}
