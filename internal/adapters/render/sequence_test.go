package render_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/barrace/internal/adapters/render"
	"github.com/okian/barrace/internal/domain/model"
	"github.com/okian/barrace/internal/domain/palette"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileName(t *testing.T) {
	Convey("Given a frame with a time key", t, func() {
		f := model.Frame{TimeKey: "2020/01 x"}

		Convey("Then the name is ordered and path safe", func() {
			So(render.FileName(7, f, render.SVG), ShouldEqual, "frame-0007-2020_01_x.svg")
		})
	})
}

func TestSequence(t *testing.T) {
	Convey("Given three frames, one of them empty", t, func() {
		frames := []model.Frame{
			{TimeKey: "2020-01", Entries: []model.Entry{{Entity: "A", Value: 3}, {Entity: "B", Value: 1}}},
			{TimeKey: "2020-02"},
			{TimeKey: "2020-03", Entries: []model.Entry{{Entity: "B", Value: 4}, {Entity: "A", Value: 2}}},
		}
		r := render.New(palette.New([]string{"A", "B"}), render.WithSize(320, 200))
		dir := filepath.Join(t.TempDir(), "out")

		Convey("When the sequence is rendered", func() {
			paths, err := r.Sequence(context.Background(), dir, frames, render.PNG, 2)

			Convey("Then one image per drawable frame is written in order", func() {
				So(err, ShouldBeNil)
				So(paths, ShouldResemble, []string{
					filepath.Join(dir, "frame-0000-2020-01.png"),
					filepath.Join(dir, "frame-0002-2020-03.png"),
				})
				for _, p := range paths {
					data, err := os.ReadFile(p)
					So(err, ShouldBeNil)
					So(data[:8], ShouldResemble, pngSignature)
				}
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := r.Sequence(ctx, dir, frames, render.PNG, 1)

			Convey("Then rendering stops with the context error", func() {
				So(err, ShouldEqual, context.Canceled)
			})
		})
	})
}
