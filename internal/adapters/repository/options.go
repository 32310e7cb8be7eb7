package repository

import "github.com/okian/barrace/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithEntities sets the entity universe reported by the store. By default it
// is derived from the frames.
func WithEntities(entities []string) Option {
	return func(s *MemoryStore) {
		if entities != nil {
			s.entities = append([]string(nil), entities...)
		}
	}
}

// WithFrames replaces the frames held by the store.
func WithFrames(frames []model.Frame) Option {
	return func(s *MemoryStore) {
		s.frames = frames
	}
}
