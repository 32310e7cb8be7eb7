package reconcile_test

import (
	"testing"

	"github.com/okian/barrace/internal/domain/reconcile"
	. "github.com/smartystreets/goconvey/convey"
)

type item struct {
	id    string
	value int
}

func byID(i item) string { return i.id }

func TestKeyed(t *testing.T) {
	Convey("Given nothing live yet", t, func() {
		next := []item{{"A", 1}, {"B", 2}}

		Convey("When reconciled", func() {
			plan := reconcile.Keyed(nil, next, byID)

			Convey("Then everything enters", func() {
				So(plan.Enter, ShouldResemble, next)
				So(plan.Update, ShouldBeEmpty)
				So(plan.Exit, ShouldBeEmpty)
				So(plan.Live, ShouldResemble, []string{"A", "B"})
			})
		})
	})

	Convey("Given live keys that change rank", t, func() {
		live := []string{"A", "B", "C"}
		next := []item{{"C", 9}, {"A", 5}, {"B", 1}}

		Convey("When reconciled", func() {
			plan := reconcile.Keyed(live, next, byID)

			Convey("Then matching is by key and every element updates", func() {
				So(plan.Enter, ShouldBeEmpty)
				So(plan.Exit, ShouldBeEmpty)
				So(plan.Update, ShouldResemble, next)
				So(plan.Live, ShouldResemble, []string{"C", "A", "B"})
			})
		})
	})

	Convey("Given a key that disappears and one that appears", t, func() {
		live := []string{"A", "B", "C"}
		next := []item{{"D", 4}, {"A", 3}, {"C", 1}}

		Convey("When reconciled", func() {
			plan := reconcile.Keyed(live, next, byID)

			Convey("Then the sets split by key presence", func() {
				So(plan.Enter, ShouldResemble, []item{{"D", 4}})
				So(plan.Update, ShouldResemble, []item{{"A", 3}, {"C", 1}})
				So(plan.Exit, ShouldResemble, []string{"B"})
				So(plan.Live, ShouldResemble, []string{"D", "A", "C"})
			})
		})
	})

	Convey("Given an empty next list", t, func() {
		plan := reconcile.Keyed([]string{"A", "B"}, []item{}, byID)

		Convey("Then every live key exits", func() {
			So(plan.Exit, ShouldResemble, []string{"A", "B"})
			So(plan.Live, ShouldBeEmpty)
		})
	})

	Convey("Given duplicate keys in next", t, func() {
		plan := reconcile.Keyed(nil, []item{{"A", 1}, {"A", 2}}, byID)

		Convey("Then only the first item is used", func() {
			So(plan.Enter, ShouldResemble, []item{{"A", 1}})
			So(plan.Live, ShouldResemble, []string{"A"})
		})
	})
}
