package repository

import "errors"

// Sentinel kinds for frame store errors.
var (
	ErrNotFound     = errors.New("frame not found")
	ErrInvalidIndex = errors.New("invalid frame index")
)
