package source

import "errors"

// Sentinel kinds for load errors.
var (
	ErrNoData   = errors.New("no data")
	ErrFetch    = errors.New("fetch records")
	ErrDecode   = errors.New("decode records")
	ErrLocation = errors.New("empty data location")
)
