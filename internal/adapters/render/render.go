// Package render draws still images of single frames.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/pkg/logger"
	"github.com/okian/barrace/pkg/metrics"
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	PNG Format = "png"
	SVG Format = "svg"
)

const (
	defaultWidth  = 960
	defaultHeight = 600
	minBarWidth   = 4
	barSpacing    = 8
	axisAllowance = 100
)

// ParseFormat maps a format name to a Format. An empty name means PNG.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Ext returns the file extension of the format, with the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

func (f Format) provider() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

// Colorer assigns a color to an entity.
type Colorer interface {
	Color(entity string) string
}

// Renderer draws frames as bar charts, one bar per entity in rank order,
// colored like the animation.
type Renderer struct {
	colors Colorer
	width  int
	height int
	topN   int
	logger logger.Logger
}

// New creates a renderer with configuration options.
func New(colors Colorer, opts ...Option) *Renderer {
	r := &Renderer{
		colors: colors,
		width:  defaultWidth,
		height: defaultHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("render")
	}
	return r
}

// Frame writes a snapshot of f to w.
func (r *Renderer) Frame(ctx context.Context, w io.Writer, f model.Frame, format Format) error {
	start := time.Now()
	if len(f.Entries) == 0 {
		return ErrEmptyFrame
	}

	entries := f.Entries
	if r.topN > 0 && len(entries) > r.topN {
		entries = entries[:r.topN]
	}

	bars := make([]chart.Value, 0, len(entries))
	for _, e := range entries {
		color := drawing.ColorFromHex(strings.TrimPrefix(r.colors.Color(e.Entity), "#"))
		bars = append(bars, chart.Value{
			Label: e.Entity,
			Value: e.Value,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}

	// A fixed range keeps zero-height frames renderable and bars anchored at 0.
	peak := f.Max()
	if peak <= 0 {
		peak = 1
	}

	bc := chart.BarChart{
		Title:      f.TimeKey,
		Width:      r.width,
		Height:     r.height,
		BarWidth:   r.barWidth(len(bars)),
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: peak}},
		Bars:       bars,
	}

	if err := bc.Render(format.provider(), w); err != nil {
		metrics.RecordErrorByComponent("render", string(format))
		return fmt.Errorf("%w: frame %s: %w", ErrRender, f.TimeKey, err)
	}

	elapsed := time.Since(start)
	metrics.RecordChartRender(string(format), float64(elapsed.Microseconds())/1000)
	r.logger.Debug(ctx, "frame rendered",
		logger.String("time_key", f.TimeKey),
		logger.String("format", string(format)),
		logger.Int("bars", len(bars)),
		logger.Duration("took", elapsed),
	)
	return nil
}

func (r *Renderer) barWidth(n int) int {
	w := (r.width-axisAllowance)/n - barSpacing
	if w < minBarWidth {
		return minBarWidth
	}
	return w
}
