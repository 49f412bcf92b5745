package backend

import (
	"math"
	"math/rand"
	"time"
)

// Generator produces a deterministic random walk of OHLCV bars for demos and
// benchmarks. The same seed yields the same sequence.
type Generator struct {
	rng        *rand.Rand
	price      float64
	volatility float64
	next       int64
	interval   int64
}

func NewGenerator(seed int64, start time.Time, interval time.Duration, startPrice float64) *Generator {
	if startPrice <= 0 {
		startPrice = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Generator{
		rng:        rand.New(rand.NewSource(seed)),
		price:      startPrice,
		volatility: startPrice * 0.002,
		next:       start.UnixNano(),
		interval:   int64(interval),
	}
}

// Next returns the following bar. Times advance by the fixed interval; the
// price takes four sub-steps per bar so high and low bracket open and close.
func (g *Generator) Next() Bar {
	open := g.price
	high, low := open, open
	for i := 0; i < 4; i++ {
		g.price += (g.rng.Float64() - 0.5) * 2 * g.volatility
		if g.price < 0.01 {
			g.price = 0.01
		}
		high = math.Max(high, g.price)
		low = math.Min(low, g.price)
	}
	bar := Bar{
		TimeNS: g.next,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  g.price,
		Volume: 100 + g.rng.Float64()*900,
	}
	g.next += g.interval
	return bar
}
