package backend

import (
	"testing"
	"time"
)

func TestGeneratorBarsAreWellFormed(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	g := NewGenerator(42, base, time.Second, 100)
	var prev int64
	for i := 0; i < 1000; i++ {
		bar := g.Next()
		if i > 0 && bar.TimeNS <= prev {
			t.Fatalf("bar %d time %d is not after %d", i, bar.TimeNS, prev)
		}
		prev = bar.TimeNS
		if bar.High < bar.Open || bar.High < bar.Close {
			t.Errorf("bar %d high %v below open %v or close %v", i, bar.High, bar.Open, bar.Close)
		}
		if bar.Low > bar.Open || bar.Low > bar.Close {
			t.Errorf("bar %d low %v above open %v or close %v", i, bar.Low, bar.Open, bar.Close)
		}
		if bar.Low <= 0 {
			t.Errorf("bar %d has non-positive low %v", i, bar.Low)
		}
		if bar.Volume <= 0 {
			t.Errorf("bar %d has non-positive volume %v", i, bar.Volume)
		}
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	a := NewGenerator(7, base, time.Second, 50)
	b := NewGenerator(7, base, time.Second, 50)
	for i := 0; i < 100; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("generators with equal seeds diverged at bar %d", i)
		}
	}
}

func TestGeneratorContinuity(t *testing.T) {
	g := NewGenerator(1, time.Unix(0, 0), time.Second, 100)
	prev := g.Next()
	for i := 0; i < 100; i++ {
		bar := g.Next()
		if bar.Open != prev.Close {
			t.Fatalf("bar %d opens at %v but the previous close was %v", i, bar.Open, prev.Close)
		}
		prev = bar
	}
}
