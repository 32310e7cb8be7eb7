package render

import "github.com/okian/barrace/pkg/logger"

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width = width
			r.height = height
		}
	}
}

// WithTopN limits a snapshot to the n highest ranked entries. Zero keeps
// every entry.
func WithTopN(n int) Option {
	return func(r *Renderer) {
		if n >= 0 {
			r.topN = n
		}
	}
}

// WithLogger sets a custom logger for the renderer.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}
