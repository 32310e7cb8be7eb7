// Package animator plays a sequence of ranked frames as a bar chart race.
//
// On every tick the animator picks the next frame, rescales both axes to
// it, and reconciles three element families (bars, name labels, value
// labels) against the frame entries by entity. The resulting operations are
// handed to a Surface as one batch; the animator never waits for the
// surface to finish its transitions.
package animator

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/internal/domain/palette"
	"github.com/okian/barrace/internal/domain/reconcile"
	"github.com/okian/barrace/internal/domain/scale"
	"github.com/okian/barrace/internal/domain/scene"
	"github.com/okian/barrace/pkg/logger"
	"github.com/okian/barrace/pkg/metrics"
)

// Element classes emitted by the animator.
const (
	ClassPlot       = "plot"
	ClassBar        = "bar"
	ClassLabel      = "label"
	ClassValueLabel = "value-label"
	ClassTimeLabel  = "date-label"
)

// families lists the keyed element families in render order.
var families = []string{ClassBar, ClassLabel, ClassValueLabel}

// Surface accepts the rendering work of one tick.
type Surface interface {
	Render(ctx context.Context, b scene.Batch) error
}

// Colorer assigns a color to an entity.
type Colorer interface {
	Color(entity string) string
}

// State is the playback state.
type State int

// Playback states.
const (
	// Idle means the ticker was never started.
	Idle State = iota
	// Playing means the ticker is running.
	Playing
	// Stopped means the ticker was released; Start resumes from the cursor.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

func (s State) metric() int {
	switch s {
	case Playing:
		return metrics.PlaybackPlaying
	case Stopped:
		return metrics.PlaybackStopped
	default:
		return metrics.PlaybackIdle
	}
}

// Status is a point-in-time view of playback.
type Status struct {
	State   string `json:"state"`
	Cursor  int    `json:"cursor"`
	Frames  int    `json:"frames"`
	Ticks   uint64 `json:"ticks"`
	TimeKey string `json:"time_key"`
}

// Animator owns the playback cursor, the live element keys and the ticker.
type Animator struct {
	mu sync.Mutex

	cfg     Config
	frames  []model.Frame
	surface Surface
	colors  Colorer
	logger  logger.Logger

	cursor   int
	seq      uint64
	timeKey  string
	prepared bool
	live     map[string][]string

	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an animator over frames. Frames are not copied and must not
// be modified afterwards.
func New(frames []model.Frame, surface Surface, colors Colorer, opts ...Option) (*Animator, error) {
	a := &Animator{
		cfg:     DefaultConfig(),
		frames:  frames,
		surface: surface,
		colors:  colors,
		live:    make(map[string][]string, len(families)),
	}

	for _, opt := range opts {
		opt(a)
	}

	if surface == nil {
		return nil, ErrNilSurface
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	if a.colors == nil {
		a.colors = palette.New(universe(frames))
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("animator")
	}

	metrics.UpdateFrameCount(len(frames))
	metrics.UpdatePlaybackState(a.state.metric())
	return a, nil
}

// Config returns the configuration in use.
func (a *Animator) Config() Config {
	return a.cfg
}

// FrameCount returns the number of frames.
func (a *Animator) FrameCount() int {
	return len(a.frames)
}

// Cursor returns the index of the frame the next tick renders.
func (a *Animator) Cursor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// State returns the playback state.
func (a *Animator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Status returns state, cursor and counters together.
func (a *Animator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		State:   a.state.String(),
		Cursor:  a.cursor,
		Frames:  len(a.frames),
		Ticks:   a.seq,
		TimeKey: a.timeKey,
	}
}

// Start begins playback: one tick right away, then one per tick period
// until Stop is called or ctx is cancelled. Starting while playing is a
// no-op.
func (a *Animator) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.state == Playing {
		a.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.state = Playing
	a.mu.Unlock()

	metrics.UpdatePlaybackState(Playing.metric())
	a.logger.Info(ctx, "playback started",
		logger.Int("frames", len(a.frames)),
		logger.Int("cursor", a.Cursor()),
		logger.Duration("period", a.cfg.TickPeriod),
	)

	go a.run(runCtx, done)
	return nil
}

func (a *Animator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.cfg.TickPeriod)
	defer ticker.Stop()

	a.tickLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			a.mu.Lock()
			if a.done == done && a.state == Playing {
				a.state = Stopped
				metrics.UpdatePlaybackState(Stopped.metric())
			}
			a.mu.Unlock()
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			a.tickLogged(ctx)
		}
	}
}

func (a *Animator) tickLogged(ctx context.Context) {
	if err := a.Tick(ctx); err != nil && ctx.Err() == nil {
		a.logger.Warn(ctx, "tick not rendered", logger.Error(err))
	}
}

// Stop releases the ticker and waits for the playback goroutine to exit.
// The cursor is kept. Stopping when not playing is a no-op.
func (a *Animator) Stop() {
	a.mu.Lock()
	if a.state != Playing {
		a.mu.Unlock()
		return
	}
	cancel, done := a.cancel, a.done
	a.state = Stopped
	a.mu.Unlock()

	cancel()
	<-done
	metrics.UpdatePlaybackState(Stopped.metric())
	a.logger.Info(context.Background(), "playback stopped", logger.Int("cursor", a.Cursor()))
}

// Tick renders the frame at the cursor and advances the cursor, wrapping
// after the last frame. With no frames it does nothing.
//
// The cursor advances even when the surface rejects the batch; the error
// is returned wrapped in ErrSurface.
func (a *Animator) Tick(ctx context.Context) error {
	start := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.frames) == 0 {
		metrics.RecordTickSkipped()
		return nil
	}

	index := a.cursor
	frame := a.frames[index]
	a.seq++
	batch := scene.Batch{Seq: a.seq, Cursor: index, TimeKey: frame.TimeKey}

	if !a.prepared {
		batch.Ops = append(batch.Ops, a.setupOps()...)
		a.prepared = true
	}
	batch.Ops = append(batch.Ops, a.frameOps(frame)...)

	a.cursor = (a.cursor + 1) % len(a.frames)
	a.timeKey = frame.TimeKey

	metrics.UpdateCursor(index)
	metrics.UpdateEntityCount(len(frame.Entries))
	metrics.RecordBatchSize(len(batch.Ops))

	err := a.surface.Render(ctx, batch)
	metrics.RecordTick(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordSurfaceError()
		metrics.RecordErrorByComponent("animator", "surface")
		return fmt.Errorf("%w: frame %d (%s): %w", ErrSurface, index, frame.TimeKey, err)
	}

	a.logger.Debug(ctx, "frame rendered",
		logger.Int("cursor", index),
		logger.String("time_key", frame.TimeKey),
		logger.Int("ops", len(batch.Ops)),
	)
	return nil
}

// setupOps creates the plot group and the time key label.
func (a *Animator) setupOps() []scene.Op {
	return []scene.Op{
		{
			Kind:  scene.OpCreate,
			Class: ClassPlot,
			Tag:   scene.TagGroup,
			Attrs: scene.Attrs{
				"transform": fmt.Sprintf("translate(%s,%s)", formatNumber(a.cfg.Margin.Left), formatNumber(a.cfg.Margin.Top)),
			},
		},
		{
			Kind:  scene.OpCreate,
			Class: ClassTimeLabel,
			Tag:   scene.TagText,
			Attrs: scene.Attrs{
				"x":           a.cfg.Margin.Left + a.cfg.PlotWidth()/2,
				"y":           a.cfg.TimeLabelY,
				"text-anchor": "middle",
			},
		},
	}
}

// geometry holds the per-frame axis mappings.
type geometry struct {
	x  scale.Linear
	y  scale.Band
	bw float64
}

func (g geometry) rank(entity string) float64 {
	y, _ := g.y.Map(entity)
	return y
}

func (g geometry) middle(entity string) float64 {
	return g.rank(entity) + g.bw/2
}

// frameOps reconciles every element family against frame.
func (a *Animator) frameOps(frame model.Frame) []scene.Op {
	geo := geometry{
		x: scale.NewLinear(0, frame.Max(), 0, a.cfg.PlotWidth()),
		y: scale.NewBand(frame.Entities(), 0, a.cfg.PlotHeight(), a.cfg.BandPadding),
	}
	geo.bw = geo.y.Bandwidth()

	var ops []scene.Op
	for _, family := range families {
		plan := reconcile.Keyed(a.live[family], frame.Entries, func(e model.Entry) string { return e.Entity })

		for _, key := range plan.Exit {
			ops = append(ops, scene.Op{Kind: scene.OpRemove, Class: family, Key: key})
		}
		for _, e := range plan.Enter {
			ops = append(ops, a.enterOp(family, e, geo))
		}
		// Entering elements transition from their seed like existing ones.
		for _, e := range plan.Enter {
			ops = append(ops, a.updateOp(family, e, geo))
		}
		for _, e := range plan.Update {
			ops = append(ops, a.updateOp(family, e, geo))
		}

		a.live[family] = plan.Live
		metrics.RecordElementOps(family, "enter", len(plan.Enter))
		metrics.RecordElementOps(family, "update", len(plan.Update))
		metrics.RecordElementOps(family, "exit", len(plan.Exit))
	}

	ops = append(ops, scene.Op{
		Kind:  scene.OpSet,
		Class: ClassTimeLabel,
		Attrs: scene.Attrs{"text": frame.TimeKey},
	})
	return ops
}

func (a *Animator) enterOp(family string, e model.Entry, geo geometry) scene.Op {
	op := scene.Op{Kind: scene.OpCreate, Class: family, Key: e.Entity, Parent: ClassPlot}
	switch family {
	case ClassBar:
		op.Tag = scene.TagRect
		op.Attrs = scene.Attrs{
			"x":      0.0,
			"y":      geo.rank(e.Entity),
			"width":  0.0,
			"height": geo.bw,
			"fill":   a.colors.Color(e.Entity),
		}
	case ClassLabel:
		op.Tag = scene.TagText
		op.Attrs = scene.Attrs{
			"x":           -a.cfg.LabelOffset,
			"y":           geo.middle(e.Entity),
			"dy":          ".35em",
			"text-anchor": "end",
			"text":        e.Entity,
		}
	case ClassValueLabel:
		op.Tag = scene.TagText
		op.Attrs = scene.Attrs{
			"x":    geo.x.Map(e.Value) + a.cfg.ValueLabelOffset,
			"y":    geo.middle(e.Entity),
			"dy":   ".35em",
			"text": formatNumber(e.Value),
		}
	}
	return op
}

func (a *Animator) updateOp(family string, e model.Entry, geo geometry) scene.Op {
	op := scene.Op{
		Kind:       scene.OpAnimate,
		Class:      family,
		Key:        e.Entity,
		DurationMS: a.cfg.TransitionDuration.Milliseconds(),
	}
	switch family {
	case ClassBar:
		op.Attrs = scene.Attrs{
			"y":      geo.rank(e.Entity),
			"width":  geo.x.Map(e.Value),
			"height": geo.bw,
		}
	case ClassLabel:
		op.Attrs = scene.Attrs{
			"y": geo.middle(e.Entity),
		}
	case ClassValueLabel:
		op.Attrs = scene.Attrs{
			"x":    geo.x.Map(e.Value) + a.cfg.ValueLabelOffset,
			"y":    geo.middle(e.Entity),
			"text": formatNumber(e.Value),
		}
	}
	return op
}

// universe lists entities in the order they first appear across frames.
func universe(frames []model.Frame) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range frames {
		for _, e := range f.Entries {
			if _, ok := seen[e.Entity]; !ok {
				seen[e.Entity] = struct{}{}
				out = append(out, e.Entity)
			}
		}
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
