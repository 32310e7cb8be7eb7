package ws

import "errors"

// Sentinel kinds for hub errors.
var (
	ErrClosed = errors.New("hub closed")
	ErrEncode = errors.New("encode message")
)
