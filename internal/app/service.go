// Package service wires the race components together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/okian/barrace/internal/adapters/http/api"
	"github.com/okian/barrace/internal/adapters/render"
	"github.com/okian/barrace/internal/adapters/repository"
	"github.com/okian/barrace/internal/adapters/source"
	"github.com/okian/barrace/internal/adapters/ws"
	"github.com/okian/barrace/internal/animator"
	"github.com/okian/barrace/internal/domain/frames"
	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/internal/domain/palette"
	"github.com/okian/barrace/pkg/logger"
	"github.com/okian/barrace/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultDataSource         = "data/aum.json"
	defaultLoadTimeout        = 30 * time.Second
	defaultViewerQueueSize    = 64
	defaultViewerWriteTimeout = 5 * time.Second
)

var _ api.Dependencies = (*Service)(nil)

// Service loads the records once, builds the frames and drives playback
// into the websocket hub.
type Service struct {
	mu sync.RWMutex

	// Core components
	loader   *source.Loader
	store    repository.Store
	palette  *palette.Palette
	hub      *ws.Hub
	animator *animator.Animator
	renderer *render.Renderer

	// Configuration
	dataSource         string
	loadTimeout        time.Duration
	animatorCfg        animator.Config
	autoplay           bool
	viewerQueueSize    int
	viewerWriteTimeout time.Duration
	snapshotTopN       int

	// State
	records   []model.Record
	preloaded bool
	started   bool
	startedAt time.Time
	runCtx    context.Context
	cancel    context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataSource:         defaultDataSource,
		loadTimeout:        defaultLoadTimeout,
		animatorCfg:        animator.DefaultConfig(),
		autoplay:           true,
		viewerQueueSize:    defaultViewerQueueSize,
		viewerWriteTimeout: defaultViewerWriteTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the records, builds the frames and, with autoplay, starts
// playback. When the document holds no data the service does not start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.loader == nil {
		s.loader = source.NewLoader(source.WithTimeout(s.loadTimeout))
	}

	s.logger.Info(ctx, "starting race service...", logger.String("dataSource", s.dataSource))

	records := s.records
	if !s.preloaded {
		loaded, err := s.loader.Load(ctx, s.dataSource)
		if err != nil {
			s.logger.Error(ctx, "no race to play", logger.String("dataSource", s.dataSource), logger.Error(err))
			return fmt.Errorf("%w: %w", ErrLoad, err)
		}
		records = loaded
	}

	built := frames.Build(records)
	universe := frames.Universe(records)

	s.store = repository.NewMemoryStore(
		repository.WithFrames(built),
		repository.WithEntities(universe),
	)
	s.palette = palette.New(universe)
	s.hub = ws.NewHub(
		ws.WithQueueSize(s.viewerQueueSize),
		ws.WithWriteTimeout(s.viewerWriteTimeout),
	)
	anim, err := animator.New(built, s.hub, s.palette, animator.WithConfig(s.animatorCfg))
	if err != nil {
		_ = s.hub.Close()
		return fmt.Errorf("create animator: %w", err)
	}
	s.animator = anim
	s.renderer = render.New(s.palette,
		render.WithSize(int(s.animatorCfg.Width), int(s.animatorCfg.Height)),
		render.WithTopN(s.snapshotTopN),
	)

	s.records = records
	s.runCtx, s.cancel = context.WithCancel(context.Background())
	if s.autoplay {
		if err := s.animator.Start(s.runCtx); err != nil {
			s.cancel()
			_ = s.hub.Close()
			return fmt.Errorf("start playback: %w", err)
		}
	}

	s.started = true
	s.startedAt = time.Now()
	metrics.UpdateEntityCount(len(universe))
	s.logger.Info(ctx, "race service started",
		logger.Int("records", len(records)),
		logger.Int("frames", len(built)),
		logger.Int("entities", len(universe)),
		logger.Bool("autoplay", s.autoplay),
	)
	return nil
}

// Stop halts playback and disconnects every viewer.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping race service...")

	s.animator.Stop()
	if err := s.hub.Close(); err != nil {
		s.logger.Warn(context.Background(), "failed to close hub", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(context.Background(), "race service stopped")
}

// Frames returns every frame in time key order.
func (s *Service) Frames(ctx context.Context) ([]model.Frame, error) {
	store, err := s.frameStore()
	if err != nil {
		return nil, err
	}
	return store.Frames(ctx), nil
}

// Frame returns the frame at index.
func (s *Service) Frame(ctx context.Context, index int) (model.Frame, error) {
	store, err := s.frameStore()
	if err != nil {
		return model.Frame{}, err
	}
	return store.Frame(ctx, index)
}

// RenderFrame writes a still image of the frame at index.
func (s *Service) RenderFrame(ctx context.Context, w io.Writer, index int, format render.Format) error {
	s.mu.RLock()
	started, store, renderer := s.started, s.store, s.renderer
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	f, err := store.Frame(ctx, index)
	if err != nil {
		return err
	}
	return renderer.Frame(ctx, w, f, format)
}

// Playback returns the current playback status.
func (s *Service) Playback(_ context.Context) (animator.Status, error) {
	anim, err := s.player()
	if err != nil {
		return animator.Status{}, err
	}
	return anim.Status(), nil
}

// StartPlayback starts or resumes playback from the kept cursor.
func (s *Service) StartPlayback(ctx context.Context) (animator.Status, error) {
	s.mu.RLock()
	started, anim, runCtx := s.started, s.animator, s.runCtx
	s.mu.RUnlock()
	if !started {
		return animator.Status{}, ErrNotStarted
	}

	if err := anim.Start(runCtx); err != nil {
		return animator.Status{}, err
	}
	s.logger.Info(ctx, "playback started on request")
	return anim.Status(), nil
}

// StopPlayback stops playback; the cursor is kept.
func (s *Service) StopPlayback(ctx context.Context) (animator.Status, error) {
	anim, err := s.player()
	if err != nil {
		return animator.Status{}, err
	}
	anim.Stop()
	s.logger.Info(ctx, "playback stopped on request")
	return anim.Status(), nil
}

// Viewers returns the websocket endpoint handler.
func (s *Service) Viewers() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		started, hub := s.started, s.hub
		s.mu.RUnlock()
		if !started {
			http.Error(w, ErrNotStarted.Error(), http.StatusServiceUnavailable)
			return
		}
		hub.ServeHTTP(w, r)
	})
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"dataSource":   s.dataSource,
		"tickPeriodMs": s.animatorCfg.TickPeriod.Milliseconds(),
		"transitionMs": s.animatorCfg.TransitionDuration.Milliseconds(),
		"autoplay":     s.autoplay,
		"viewerQueue":  s.viewerQueueSize,
		"width":        s.animatorCfg.Width,
		"height":       s.animatorCfg.Height,
	}

	if s.started {
		status := s.animator.Status()
		viewers := s.hub.Viewers()

		stats["records"] = len(s.records)
		stats["frames"] = s.store.Count(ctx)
		stats["entities"] = len(s.store.Entities(ctx))
		stats["viewers"] = viewers
		stats["playback"] = status.State
		stats["cursor"] = status.Cursor
		stats["ticks"] = status.Ticks
		stats["timeKey"] = status.TimeKey
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())

		metrics.UpdateViewersConnected(viewers)
	}

	return stats
}

func (s *Service) frameStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) player() (*animator.Animator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.animator, nil
}
