package service

import (
	"time"

	"github.com/okian/barrace/internal/adapters/source"
	"github.com/okian/barrace/internal/animator"
	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataSource sets the file path or http(s) URL of the record document.
func WithDataSource(location string) Option {
	return func(s *Service) {
		if location != "" {
			s.dataSource = location
		}
	}
}

// WithRecords supplies the records directly; the data source is not read.
func WithRecords(records []model.Record) Option {
	return func(s *Service) {
		s.records = records
		s.preloaded = true
	}
}

// WithLoader sets the loader used to read the data source.
func WithLoader(l *source.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithLoadTimeout bounds fetching the record document.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithAnimatorConfig sets playback cadence and canvas geometry.
func WithAnimatorConfig(cfg animator.Config) Option {
	return func(s *Service) {
		s.animatorCfg = cfg
	}
}

// WithAutoplay controls whether playback starts with the service.
func WithAutoplay(on bool) Option {
	return func(s *Service) {
		s.autoplay = on
	}
}

// WithViewerQueueSize bounds the outbound messages held per viewer.
func WithViewerQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.viewerQueueSize = size
		}
	}
}

// WithViewerWriteTimeout bounds a single websocket write.
func WithViewerWriteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.viewerWriteTimeout = d
		}
	}
}

// WithSnapshotTopN limits static chart snapshots to the top n bars.
func WithSnapshotTopN(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.snapshotTopN = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
