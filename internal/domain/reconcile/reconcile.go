// Package reconcile computes keyed enter/update/exit sets between the
// elements currently shown and the next list of data items.
//
// Matching is by key, never by position, so an item that changes rank is
// an update of the same element rather than an exit plus an enter.
package reconcile

// Plan is the outcome of a keyed reconciliation.
type Plan[K comparable, T any] struct {
	// Enter holds items whose key is not live, in next order.
	Enter []T
	// Update holds items whose key is already live, in next order.
	Update []T
	// Exit holds live keys absent from next, in live order.
	Exit []K
	// Live is the key list after the plan is applied, in next order.
	Live []K
}

// Keyed reconciles the live keys against next. Items sharing a key with an
// earlier item in next are ignored.
func Keyed[K comparable, T any](live []K, next []T, key func(T) K) Plan[K, T] {
	current := make(map[K]struct{}, len(live))
	for _, k := range live {
		current[k] = struct{}{}
	}

	plan := Plan[K, T]{Live: make([]K, 0, len(next))}
	kept := make(map[K]struct{}, len(next))
	for _, item := range next {
		k := key(item)
		if _, dup := kept[k]; dup {
			continue
		}
		kept[k] = struct{}{}
		plan.Live = append(plan.Live, k)
		if _, ok := current[k]; ok {
			plan.Update = append(plan.Update, item)
		} else {
			plan.Enter = append(plan.Enter, item)
		}
	}

	for _, k := range live {
		if _, ok := kept[k]; !ok {
			plan.Exit = append(plan.Exit, k)
		}
	}
	return plan
}
