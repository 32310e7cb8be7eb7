package repository

import (
	"context"
	"fmt"

	"github.com/okian/barrace/internal/domain/model"
)

// MemoryStore is a read-only Store over frames built once at startup.
type MemoryStore struct {
	frames   []model.Frame
	entities []string
	index    map[string]int
}

// NewMemoryStore creates a store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	if s.frames == nil {
		s.frames = []model.Frame{}
	}
	s.index = make(map[string]int, len(s.frames))
	for i, f := range s.frames {
		s.index[f.TimeKey] = i
	}
	if s.entities == nil {
		s.entities = entities(s.frames)
	}
	return s
}

// Frames returns every frame in time key order.
func (s *MemoryStore) Frames(_ context.Context) []model.Frame {
	return s.frames
}

// Frame returns the frame at index.
func (s *MemoryStore) Frame(_ context.Context, index int) (model.Frame, error) {
	if index < 0 {
		return model.Frame{}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if index >= len(s.frames) {
		return model.Frame{}, fmt.Errorf("%w: index %d of %d", ErrNotFound, index, len(s.frames))
	}
	return s.frames[index], nil
}

// ByTimeKey returns the frame for a time key and its index.
func (s *MemoryStore) ByTimeKey(_ context.Context, timeKey string) (model.Frame, int, error) {
	i, ok := s.index[timeKey]
	if !ok {
		return model.Frame{}, -1, fmt.Errorf("%w: time key %q", ErrNotFound, timeKey)
	}
	return s.frames[i], i, nil
}

// Entities returns the entity universe.
func (s *MemoryStore) Entities(_ context.Context) []string {
	return append([]string(nil), s.entities...)
}

// Count returns the number of frames.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(s.frames)
}

// entities collects entity ids in the order they first appear.
func entities(frames []model.Frame) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, f := range frames {
		for _, e := range f.Entries {
			if _, ok := seen[e.Entity]; ok {
				continue
			}
			seen[e.Entity] = struct{}{}
			out = append(out, e.Entity)
		}
	}
	return out
}
