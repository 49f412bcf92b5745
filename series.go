package tickplot

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"sort"

	"github.com/tickplot/tickplot/render"
)

// SeriesType selects both the data shape and the rendering of a series.
// It is a closed set: every consumer dispatches with an exhaustive switch.
type SeriesType uint8

const (
	SeriesLine SeriesType = iota
	SeriesArea
	SeriesBar
	SeriesCandlestick
	SeriesHistogram

	seriesTypeCount
)

func (t SeriesType) String() string {
	switch t {
	case SeriesLine:
		return "line"
	case SeriesArea:
		return "area"
	case SeriesBar:
		return "bar"
	case SeriesCandlestick:
		return "candlestick"
	case SeriesHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// isOHLC reports whether records of this type carry open/high/low/close
// rather than a single value.
func (t SeriesType) isOHLC() bool {
	return t == SeriesBar || t == SeriesCandlestick
}

// BarData is the shared record shape for all series types. Line, area and
// histogram series use Value; bar and candlestick series use the OHLC
// fields. Time is unix nanoseconds.
type BarData struct {
	Time  int64
	Value float64
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// base returns the record's anchor value, used as the series first value
// for percentage and logarithmic price transforms.
func (b BarData) base(t SeriesType) float64 {
	if t.isOHLC() {
		return b.Close
	}
	return b.Value
}

// SeriesData is an ordered, time-index-aligned container of bar records.
// Indices are kept strictly increasing, which the binary searches below
// rely on; violating appends are rejected rather than silently coerced.
type SeriesData struct {
	indices []TimeIndex
	records []BarData
	// searches counts binary-search lookups, exposed for recompute-cost
	// assertions in tests.
	searches int
}

// Size returns the number of stored records.
func (d *SeriesData) Size() int {
	return len(d.indices)
}

// Append stores a record at the given index. Out-of-order or duplicate
// indices are programming errors and are rejected with a descriptive
// error: silently reordering would corrupt the strict-increasing invariant
// every range query depends on.
func (d *SeriesData) Append(index TimeIndex, record BarData) error {
	if n := len(d.indices); n > 0 && index <= d.indices[n-1] {
		return fmt.Errorf("index %d is not after newest stored index %d", index, d.indices[n-1])
	}
	d.indices = append(d.indices, index)
	d.records = append(d.records, record)
	return nil
}

// ValueAt returns the record stored at exactly the given index. A gap
// (no record at that index) reports ok=false and never panics; callers
// treat gaps as "no value here".
func (d *SeriesData) ValueAt(index TimeIndex) (BarData, bool) {
	d.searches++
	i, found := slices.BinarySearch(d.indices, index)
	if !found {
		return BarData{}, false
	}
	return d.records[i], true
}

// VisibleRange returns the half-open window [start, end) of stored
// positions whose indices fall inside [from, to).
func (d *SeriesData) VisibleRange(from, to TimeIndex) (start, end int) {
	d.searches++
	start = sort.Search(len(d.indices), func(i int) bool { return d.indices[i] >= from })
	end = sort.Search(len(d.indices), func(i int) bool { return d.indices[i] >= to })
	return start, end
}

// IndexAt returns the time index of the record at stored position i.
func (d *SeriesData) IndexAt(i int) TimeIndex {
	return d.indices[i]
}

// RecordAt returns the record at stored position i.
func (d *SeriesData) RecordAt(i int) BarData {
	return d.records[i]
}

// MinMax returns the raw value extrema of records inside [from, to),
// honoring the series shape: OHLC records contribute their low and high,
// value records their value. ok=false when the window holds no records.
func (d *SeriesData) MinMax(from, to TimeIndex, t SeriesType) (minValue, maxValue float64, ok bool) {
	start, end := d.VisibleRange(from, to)
	if start >= end {
		return 0, 0, false
	}
	minValue = math.Inf(1)
	maxValue = math.Inf(-1)
	for _, rec := range d.records[start:end] {
		var lo, hi float64
		if t.isOHLC() {
			lo, hi = rec.Low, rec.High
		} else {
			lo, hi = rec.Value, rec.Value
		}
		minValue = min(minValue, lo)
		maxValue = max(maxValue, hi)
	}
	return minValue, maxValue, true
}

// SeriesID is a stable handle for a series. Handles are never reused, so a
// destroyed series cannot be confused with a live one.
type SeriesID int

// SeriesOptions style one series. Zero-value colors fall back to the
// defaults in DefaultSeriesOptions.
type SeriesOptions struct {
	Color     color.NRGBA
	DownColor color.NRGBA
	LineWidth float64
	LineStyle render.LineStyle
	// Base is the histogram baseline value.
	Base float64
	// Visible series are painted; hidden ones still occupy their pane.
	// The zero value is hidden: normalization fills in colors and width
	// but never flips visibility, so start from DefaultSeriesOptions for
	// a series that should paint.
	Visible bool
}

// DefaultSeriesOptions returns the styling applied when options are left
// zero-valued.
func DefaultSeriesOptions() SeriesOptions {
	return SeriesOptions{
		Color:     color.NRGBA{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff},
		DownColor: color.NRGBA{R: 0xa4, G: 0x63, B: 0x3a, A: 0xff},
		LineWidth: 2,
		LineStyle: render.LineSolid,
		Visible:   true,
	}
}

func (o SeriesOptions) normalized() SeriesOptions {
	def := DefaultSeriesOptions()
	if o.Color == (color.NRGBA{}) {
		o.Color = def.Color
	}
	if o.DownColor == (color.NRGBA{}) {
		o.DownColor = def.DownColor
	}
	if o.LineWidth <= 0 {
		o.LineWidth = def.LineWidth
	}
	if o.LineStyle > render.LineSparseDotted {
		o.LineStyle = render.LineSolid
	}
	return o
}

// Series is one named, typed collection of time-indexed records plus its
// style. Every series references exactly one PriceScale, shared with the
// other series in its pane.
type Series struct {
	id    SeriesID
	typ   SeriesType
	data  SeriesData
	opts  SeriesOptions
	scale *PriceScale

	firstValue    float64
	hasFirstValue bool
}

func newSeries(id SeriesID, typ SeriesType, opts SeriesOptions, scale *PriceScale) *Series {
	return &Series{
		id:    id,
		typ:   typ,
		opts:  opts.normalized(),
		scale: scale,
	}
}

// ID returns the series handle.
func (s *Series) ID() SeriesID {
	return s.id
}

// Type returns the series variant.
func (s *Series) Type() SeriesType {
	return s.typ
}

// Options returns the current style.
func (s *Series) Options() SeriesOptions {
	return s.opts
}

// Data exposes the underlying store.
func (s *Series) Data() *SeriesData {
	return &s.data
}

// PriceScale returns the scale this series projects through.
func (s *Series) PriceScale() *PriceScale {
	return s.scale
}

// FirstValue returns the anchor used by relative price transforms: the
// base value of the earliest appended record.
func (s *Series) FirstValue() (float64, bool) {
	return s.firstValue, s.hasFirstValue
}

// append stores a record, capturing the first value on the first append.
func (s *Series) append(index TimeIndex, record BarData) error {
	if err := s.data.Append(index, record); err != nil {
		return err
	}
	if !s.hasFirstValue {
		s.firstValue = record.base(s.typ)
		s.hasFirstValue = true
	}
	return nil
}
