package animator

import (
	"time"

	"github.com/okian/barrace/pkg/logger"
)

// Default playback and layout values.
const (
	DefaultTickPeriod         = time.Second
	DefaultTransitionDuration = 750 * time.Millisecond
	DefaultWidth              = 960
	DefaultHeight             = 600
	DefaultBandPadding        = 0.1
	DefaultLabelOffset        = 10
	DefaultValueLabelOffset   = 5
	DefaultTimeLabelY         = 30
)

// Margin is the space between the canvas edge and the plot area.
type Margin struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Config holds the playback cadence and the canvas geometry.
type Config struct {
	TickPeriod         time.Duration
	TransitionDuration time.Duration

	Width  float64
	Height float64
	Margin Margin

	// BandPadding is the fraction of each rank band left empty.
	BandPadding float64
	// LabelOffset is the gap between the axis and the right edge of name labels.
	LabelOffset float64
	// ValueLabelOffset is the gap between a bar end and its value label.
	ValueLabelOffset float64
	// TimeLabelY is the baseline of the time key label on the canvas.
	TimeLabelY float64
}

// DefaultConfig returns the stock layout: a 960x600 canvas with a wide left
// margin for entity names, one frame per second and 750ms transitions.
func DefaultConfig() Config {
	return Config{
		TickPeriod:         DefaultTickPeriod,
		TransitionDuration: DefaultTransitionDuration,
		Width:              DefaultWidth,
		Height:             DefaultHeight,
		Margin:             Margin{Top: 50, Right: 50, Bottom: 50, Left: 150},
		BandPadding:        DefaultBandPadding,
		LabelOffset:        DefaultLabelOffset,
		ValueLabelOffset:   DefaultValueLabelOffset,
		TimeLabelY:         DefaultTimeLabelY,
	}
}

// PlotWidth is the width available to bars.
func (c Config) PlotWidth() float64 { return c.Width - c.Margin.Left - c.Margin.Right }

// PlotHeight is the height shared by the rank bands.
func (c Config) PlotHeight() float64 { return c.Height - c.Margin.Top - c.Margin.Bottom }

// Validate reports configurations that cannot drive playback.
func (c Config) Validate() error {
	switch {
	case c.TickPeriod <= 0:
		return ErrInvalidTickPeriod
	case c.TransitionDuration < 0:
		return ErrInvalidTransition
	case c.PlotWidth() <= 0 || c.PlotHeight() <= 0:
		return ErrInvalidCanvas
	case c.BandPadding < 0 || c.BandPadding >= 1:
		return ErrInvalidPadding
	}
	return nil
}

// Option applies a configuration option to the Animator.
type Option func(*Animator)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(a *Animator) {
		a.cfg = cfg
	}
}

// WithTickPeriod sets the interval between frames.
func WithTickPeriod(d time.Duration) Option {
	return func(a *Animator) {
		if d > 0 {
			a.cfg.TickPeriod = d
		}
	}
}

// WithTransitionDuration sets how long element transitions run.
func WithTransitionDuration(d time.Duration) Option {
	return func(a *Animator) {
		if d >= 0 {
			a.cfg.TransitionDuration = d
		}
	}
}

// WithCanvas sets the canvas size in pixels.
func WithCanvas(width, height float64) Option {
	return func(a *Animator) {
		if width > 0 && height > 0 {
			a.cfg.Width = width
			a.cfg.Height = height
		}
	}
}

// WithMargin sets the plot margins.
func WithMargin(m Margin) Option {
	return func(a *Animator) {
		a.cfg.Margin = m
	}
}

// WithLogger sets a custom logger for the animator.
func WithLogger(l logger.Logger) Option {
	return func(a *Animator) {
		if l != nil {
			a.logger = l
		}
	}
}
