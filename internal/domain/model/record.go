// Package model contains domain models passed between layers.
package model

// Record is one observation: the value of an entity at a time key.
// JSON field names follow the input document (date, affiliate, aum).
type Record struct {
	TimeKey string  `json:"date" jsonschema:"required" jsonschema_description:"Time step key; steps are ordered lexicographically"`
	Entity  string  `json:"affiliate" jsonschema:"required" jsonschema_description:"Entity identifier"`
	Value   float64 `json:"aum" jsonschema:"required" jsonschema_description:"Magnitude of the entity at this time step"`
}

// Entry is one ranked bar within a frame.
type Entry struct {
	Entity string  `json:"entity"`
	Value  float64 `json:"value"`
}

// Frame is a ranked snapshot of every entity at a single time key.
// Entries are ordered by value, largest first.
type Frame struct {
	TimeKey string  `json:"time_key"`
	Entries []Entry `json:"entries"`
}

// Max returns the largest entry value, or 0 for a frame without entries.
func (f Frame) Max() float64 {
	var peak float64
	for i, e := range f.Entries {
		if i == 0 || e.Value > peak {
			peak = e.Value
		}
	}
	return peak
}

// Entities returns entity ids in rank order.
func (f Frame) Entities() []string {
	out := make([]string, len(f.Entries))
	for i, e := range f.Entries {
		out[i] = e.Entity
	}
	return out
}
