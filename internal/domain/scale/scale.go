// Package scale maps data values onto pixel positions: a linear scale for
// bar length and a band scale for rank position.
package scale

import "math"

// Linear maps a continuous domain onto a continuous range.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear returns a linear scale from [d0, d1] to [r0, r1].
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Domain returns the input interval.
func (l Linear) Domain() (float64, float64) { return l.d0, l.d1 }

// Map returns the range position of v. A degenerate domain maps
// every value to the start of the range.
func (l Linear) Map(v float64) float64 {
	span := l.d1 - l.d0
	if span == 0 || math.IsNaN(span) {
		// d3 would return the range midpoint; all-zero frames keep zero-width bars.
		return l.r0
	}
	return l.r0 + (v-l.d0)/span*(l.r1-l.r0)
}

// Band splits a continuous range into equal bands, one per key, in key
// order. Padding is a fraction of the step applied between bands and at
// both ends; leftover space is split evenly on either side.
type Band struct {
	index     map[string]int
	start     float64
	step      float64
	bandwidth float64
}

// NewBand builds a band scale over keys on [r0, r1] with padding in [0, 1).
func NewBand(keys []string, r0, r1, padding float64) Band {
	if padding < 0 {
		padding = 0
	}
	if padding >= 1 {
		padding = 0.99
	}

	n := float64(len(keys))
	step := (r1 - r0) / math.Max(1, n-padding+padding*2)
	start := r0 + (r1-r0-step*(n-padding))*0.5

	index := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, ok := index[k]; !ok {
			index[k] = i
		}
	}
	return Band{
		index:     index,
		start:     start,
		step:      step,
		bandwidth: step * (1 - padding),
	}
}

// Map returns the start position of the band for key.
// ok is false for keys outside the domain.
func (b Band) Map(key string) (float64, bool) {
	i, ok := b.index[key]
	if !ok {
		return 0, false
	}
	return b.start + b.step*float64(i), true
}

// Bandwidth returns the height of every band.
func (b Band) Bandwidth() float64 { return b.bandwidth }

// Step returns the distance between the starts of adjacent bands.
func (b Band) Step() float64 { return b.step }
