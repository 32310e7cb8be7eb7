package service

import (
	"errors"
	"fmt"

	"github.com/okian/barrace/internal/adapters/http/api"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted = fmt.Errorf("%w: service not started", api.ErrUnavailable)
	ErrLoad       = errors.New("load records")
)
