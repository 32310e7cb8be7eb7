package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/barrace/internal/sampledata"
	"github.com/okian/barrace/pkg/logger"
)

// Default configuration constants.
const (
	defaultEntities    = 12
	defaultSteps       = 36
	defaultLateJoiners = 0.25
	defaultTimeout     = time.Minute
)

func main() {
	var (
		entities    = flag.Int("entities", defaultEntities, "Number of entities")
		steps       = flag.Int("steps", defaultSteps, "Number of monthly time steps")
		start       = flag.String("start", "2020-01", "First time key (YYYY-MM)")
		lateJoiners = flag.Float64("late", defaultLateJoiners, "Share of entities that join after the first step")
		outputFile  = flag.String("out", "", "Output file (default: stdout)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	first, err := time.Parse(sampledata.TimeKeyLayout, *start)
	if err != nil {
		logger.Get().Error(ctx, "invalid start", logger.String("start", *start), logger.Error(err))
		os.Exit(2)
	}

	cfg := sampledata.Config{
		Entities:    *entities,
		Steps:       *steps,
		Start:       first,
		LateJoiners: *lateJoiners,
		OutputFile:  *outputFile,
	}

	records, _, err := sampledata.Generate(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "generation failed", logger.Error(err))
		os.Exit(1)
	}

	if cfg.OutputFile == "" {
		err = sampledata.Write(os.Stdout, records)
	} else {
		err = sampledata.SaveToFile(ctx, cfg.OutputFile, records)
	}
	if err != nil {
		logger.Get().Error(ctx, "write failed", logger.Error(err))
		os.Exit(1)
	}
}
