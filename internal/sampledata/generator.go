// Package sampledata generates synthetic record documents for demos and
// load tests.
package sampledata

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/pkg/logger"
)

// TimeKeyLayout formats generated time keys; keys sort lexicographically.
const TimeKeyLayout = "2006-01"

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	growthProfiles     = 5
)

// Base magnitude and monthly drift per growth profile.
const (
	steadyBase     = 500.0
	steadyDrift    = 0.01
	risingBase     = 100.0
	risingDrift    = 0.06
	decliningBase  = 900.0
	decliningDrift = -0.03
	volatileBase   = 400.0
	volatileSwing  = 0.15
	flatBase       = 250.0
	noiseSwing     = 0.04
)

// Sentinel kinds for generation errors.
var (
	ErrInvalidConfig = errors.New("invalid sample config")
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func getRandomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

type entity struct {
	name    string
	value   float64
	drift   float64
	swing   float64
	joinsAt int
}

// Generate creates one record per entity and step, except before an
// entity's join step. Records are emitted step by step.
func Generate(ctx context.Context, cfg Config) ([]model.Record, Summary, error) {
	start := time.Now()
	if cfg.Entities <= 0 || cfg.Steps <= 0 {
		return nil, Summary{}, fmt.Errorf("%w: entities and steps must be positive", ErrInvalidConfig)
	}
	if cfg.LateJoiners < 0 || cfg.LateJoiners > 1 {
		return nil, Summary{}, fmt.Errorf("%w: late joiners must be in [0, 1]", ErrInvalidConfig)
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	summary := Summary{RunID: uuid.NewString(), Entities: cfg.Entities, Steps: cfg.Steps}
	logger.Get().Info(ctx, "generating sample records",
		logger.String("run", summary.RunID),
		logger.Int("entities", cfg.Entities),
		logger.Int("steps", cfg.Steps),
	)

	entities := newEntities(cfg)
	records := make([]model.Record, 0, cfg.Entities*cfg.Steps)
	for step := 0; step < cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return nil, Summary{}, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		default:
		}

		key := cfg.Start.AddDate(0, step, 0).Format(TimeKeyLayout)
		for i := range entities {
			e := &entities[i]
			if step < e.joinsAt {
				continue
			}
			if step > e.joinsAt {
				e.advance()
			}
			records = append(records, model.Record{TimeKey: key, Entity: e.name, Value: e.value})
		}
	}

	summary.Records = len(records)
	summary.Duration = time.Since(start)
	logger.Get().Info(ctx, "generated sample records",
		logger.String("run", summary.RunID),
		logger.Int("records", summary.Records),
		logger.Duration("took", summary.Duration),
	)
	return records, summary, nil
}

func newEntities(cfg Config) []entity {
	late := int(math.Round(float64(cfg.Entities) * cfg.LateJoiners))
	out := make([]entity, cfg.Entities)
	for i := range out {
		e := entity{name: "Affiliate " + uuid.NewString()[:8]}
		switch getRandomInt(growthProfiles) {
		case 0:
			e.value, e.drift, e.swing = steadyBase, steadyDrift, noiseSwing
		case 1:
			e.value, e.drift, e.swing = risingBase, risingDrift, noiseSwing
		case 2:
			e.value, e.drift, e.swing = decliningBase, decliningDrift, noiseSwing
		case 3:
			e.value, e.drift, e.swing = volatileBase, 0, volatileSwing
		default:
			e.value, e.drift, e.swing = flatBase, 0, noiseSwing
		}
		// Spread starting points so ties are rare.
		e.value *= 0.5 + getRandomFloat()
		if i >= cfg.Entities-late && cfg.Steps > 1 {
			e.joinsAt = 1 + getRandomInt(cfg.Steps-1)
		}
		out[i] = e
	}
	return out
}

// advance applies one month of drift and noise. Values never go negative.
func (e *entity) advance() {
	change := e.drift + (getRandomFloat()*2-1)*e.swing
	e.value = math.Max(0, e.value*(1+change))
	e.value = math.Round(e.value*100) / 100
}
