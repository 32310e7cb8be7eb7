package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

// FileName returns the file name of frame index within a sequence.
func FileName(index int, f model.Frame, format Format) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, f.TimeKey)
	return fmt.Sprintf("frame-%04d-%s%s", index, key, format.Ext())
}

// Sequence writes one image per frame into dir using up to workers
// goroutines; workers <= 0 means one per CPU. Frames without entries are
// skipped. It returns the written paths in frame order; on the first
// failure the remaining frames are abandoned.
func (r *Renderer) Sequence(ctx context.Context, dir string, frames []model.Frame, format Format, workers int) ([]string, error) {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	paths := make([]string, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, FileName(i, f, format))
			err := r.writeFile(gctx, path, f, format)
			if errors.Is(err, ErrEmptyFrame) {
				r.logger.Warn(gctx, "frame skipped", logger.Int("index", i), logger.String("time_key", f.TimeKey))
				return nil
			}
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := paths[:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	r.logger.Info(ctx, "sequence rendered",
		logger.String("dir", dir),
		logger.Int("frames", len(frames)),
		logger.Int("written", len(out)),
	)
	return out, nil
}

func (r *Renderer) writeFile(ctx context.Context, path string, f model.Frame, format Format) (err error) {
	if len(f.Entries) == 0 {
		return ErrEmptyFrame
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrRender, cerr)
		}
	}()
	return r.Frame(ctx, file, f, format)
}
