package scene_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/barrace/internal/domain/scene"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGraph(t *testing.T) {
	Convey("Given an empty graph", t, func() {
		g := scene.NewGraph()

		Convey("When a batch creates two bars", func() {
			err := g.Render(context.Background(), scene.Batch{Seq: 1, TimeKey: "2020-01", Ops: []scene.Op{
				{Kind: scene.OpCreate, Class: "bar", Key: "A", Tag: scene.TagRect, Attrs: scene.Attrs{"width": 0.0}},
				{Kind: scene.OpCreate, Class: "bar", Key: "B", Tag: scene.TagRect, Attrs: scene.Attrs{"width": 0.0}},
				{Kind: scene.OpAnimate, Class: "bar", Key: "A", Attrs: scene.Attrs{"width": 100.0}, DurationMS: 750},
			}})

			Convey("Then both exist with animations applied as end values", func() {
				So(err, ShouldBeNil)
				So(g.Applied(), ShouldEqual, 1)
				a, ok := g.Lookup("bar", "A")
				So(ok, ShouldBeTrue)
				So(a.Tag, ShouldEqual, scene.TagRect)
				So(a.Attrs["width"], ShouldEqual, 100.0)
				So(g.Class("bar"), ShouldHaveLength, 2)
			})

			Convey("And a later batch removes one and sets text on a missing element", func() {
				g.Apply(scene.Batch{Seq: 2, Ops: []scene.Op{
					{Kind: scene.OpRemove, Class: "bar", Key: "A"},
					{Kind: scene.OpSet, Class: "date-label", Attrs: scene.Attrs{"text": "x"}},
				}})

				Convey("Then only B remains and the missing element is ignored", func() {
					els := g.Elements()
					So(els, ShouldHaveLength, 1)
					So(els[0].Key, ShouldEqual, "B")
					_, ok := g.Lookup("date-label", "")
					So(ok, ShouldBeFalse)
				})
			})

			Convey("And returned elements are copies", func() {
				a, _ := g.Lookup("bar", "A")
				a.Attrs["width"] = -1.0
				again, _ := g.Lookup("bar", "A")
				So(again.Attrs["width"], ShouldEqual, 100.0)
			})

			Convey("And a snapshot recreates the scene", func() {
				snap := g.Snapshot()
				replay := scene.NewGraph()
				replay.Apply(snap)
				So(snap.Seq, ShouldEqual, uint64(1))
				So(snap.TimeKey, ShouldEqual, "2020-01")
				So(replay.Elements(), ShouldResemble, g.Elements())
			})
		})
	})
}

func TestOpWireFormat(t *testing.T) {
	Convey("Given an animate op", t, func() {
		op := scene.Op{Kind: scene.OpAnimate, Class: "bar", Key: "A", Attrs: scene.Attrs{"y": 12.5}, DurationMS: 750}

		Convey("Then the duration is exposed as time.Duration", func() {
			So(op.Duration(), ShouldEqual, 750*time.Millisecond)
		})

		Convey("Then it encodes with short field names", func() {
			data, err := json.Marshal(op)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"op":"animate","class":"bar","key":"A","attrs":{"y":12.5},"duration_ms":750}`)
		})
	})
}
