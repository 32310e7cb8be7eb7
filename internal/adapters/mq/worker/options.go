// Package worker drains a viewer queue into its connection.
package worker

import (
	"github.com/okian/barrace/pkg/logger"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithName sets the writer name for identification and logging.
func WithName(name string) Option {
	return func(w *Writer) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(logger logger.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnError registers a callback invoked once when a send fails and the
// writer gives up.
func WithOnError(fn func(error)) Option {
	return func(w *Writer) {
		w.onError = fn
	}
}
