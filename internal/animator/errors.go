package animator

import "errors"

// Sentinel kinds for animator errors.
var (
	ErrInvalidTickPeriod = errors.New("animator: tick period must be positive")
	ErrInvalidTransition = errors.New("animator: transition duration must not be negative")
	ErrInvalidCanvas     = errors.New("animator: canvas leaves no room for the plot")
	ErrInvalidPadding    = errors.New("animator: band padding must be in [0, 1)")
	ErrNilSurface        = errors.New("animator: nil surface")
	ErrSurface           = errors.New("animator: surface rejected batch")
)
