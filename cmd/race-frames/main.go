package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/barrace/internal/adapters/render"
	"github.com/okian/barrace/internal/adapters/source"
	"github.com/okian/barrace/internal/domain/frames"
	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/internal/domain/palette"
	"github.com/okian/barrace/pkg/logger"
)

// Default configuration constants.
const (
	defaultWidth    = 960
	defaultHeight   = 600
	defaultTimeout  = 30 * time.Second
	formatJSON      = "json"
	defaultImageDir = "frames"
)

func main() {
	var (
		data    = flag.String("data", "data/aum.json", "Record document: file path or http(s) URL")
		out     = flag.String("out", "", "Output file for json (default: stdout) or directory for images (default: frames)")
		format  = flag.String("format", formatJSON, "Output format: json, png or svg")
		width   = flag.Int("width", defaultWidth, "Image width in pixels")
		height  = flag.Int("height", defaultHeight, "Image height in pixels")
		top     = flag.Int("top", 0, "Draw only the top N bars of each frame (0 for all)")
		workers = flag.Int("workers", 0, "Concurrent renderers (0 for one per CPU)")
		timeout = flag.Duration("timeout", defaultTimeout, "Timeout for fetching the document")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, options{
		data: *data, out: *out, format: *format,
		width: *width, height: *height, top: *top,
		workers: *workers, timeout: *timeout,
	})
	stop()
	if err != nil {
		logger.Get().Error(context.Background(), "race-frames failed", logger.Error(err))
		os.Exit(1)
	}
}

type options struct {
	data, out, format  string
	width, height, top int
	workers            int
	timeout            time.Duration
}

func run(ctx context.Context, o options) error {
	log := logger.Get().Named("race-frames")

	loader := source.NewLoader(source.WithTimeout(o.timeout), source.WithLogger(log))
	records, err := loader.Load(ctx, o.data)
	if err != nil {
		return err
	}
	built := frames.Build(records)

	if o.format == formatJSON {
		return writeJSON(o.out, built)
	}

	f, err := render.ParseFormat(o.format)
	if err != nil {
		return err
	}
	dir := o.out
	if dir == "" {
		dir = defaultImageDir
	}
	r := render.New(palette.New(frames.Universe(records)),
		render.WithSize(o.width, o.height),
		render.WithTopN(o.top),
		render.WithLogger(log),
	)
	_, err = r.Sequence(ctx, dir, built, f, o.workers)
	return err
}

func writeJSON(path string, built []model.Frame) (err error) {
	w := os.Stdout
	if path != "" && path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = file
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(built)
}
