package sampledata

import "time"

// Config holds the shape of a generated dataset.
type Config struct {
	Entities int       // Number of distinct entities
	Steps    int       // Number of monthly time keys
	Start    time.Time // Month of the first time key
	// LateJoiners is the share of entities, in [0, 1], that first appear
	// after the first step; they are zero-filled before that.
	LateJoiners float64
	OutputFile  string // Output file; stdout when empty
}

// Summary describes a generated dataset.
type Summary struct {
	RunID    string
	Entities int
	Steps    int
	Records  int
	Duration time.Duration
}
