package render

import "errors"

// Sentinel kinds for render errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyFrame        = errors.New("frame has no entries")
	ErrRender            = errors.New("render chart")
)
