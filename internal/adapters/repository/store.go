// Package repository defines the frame store interface and errors.
package repository

import (
	"context"

	"github.com/okian/barrace/internal/domain/model"
)

// Store provides read access to the built frames.
type Store interface {
	// Frames returns every frame in time key order.
	Frames(ctx context.Context) []model.Frame

	// Frame returns the frame at index.
	// Returns ErrInvalidIndex for a negative index and ErrNotFound past the end.
	Frame(ctx context.Context, index int) (model.Frame, error)

	// ByTimeKey returns the frame for a time key and its index.
	// Returns ErrNotFound if the key is unknown.
	ByTimeKey(ctx context.Context, timeKey string) (model.Frame, int, error)

	// Entities returns the entity universe in first appearance order.
	Entities(ctx context.Context) []string

	// Count returns the number of frames.
	Count(ctx context.Context) int
}
