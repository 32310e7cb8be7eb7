// Package site serves the embedded browser client of the race.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded client to mux at /.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("/", http.FileServer(FS()))
}
