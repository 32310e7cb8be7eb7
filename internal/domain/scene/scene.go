// Package scene describes rendering work as toolkit-agnostic operations and
// keeps a retained copy of the resulting element tree.
//
// An animator emits one Batch per tick. Any surface that can create,
// animate, set and remove keyed elements can play a batch back; the
// browser client and Graph are two such surfaces.
package scene

import (
	"context"
	"sync"
	"time"
)

// OpKind names a rendering primitive.
type OpKind string

// Rendering primitives.
const (
	// OpCreate appends a new element with its seed attributes.
	OpCreate OpKind = "create"
	// OpAnimate interpolates attributes to new values over a duration.
	OpAnimate OpKind = "animate"
	// OpSet assigns attributes immediately.
	OpSet OpKind = "set"
	// OpRemove deletes an element.
	OpRemove OpKind = "remove"
)

// Element tags.
const (
	TagGroup = "g"
	TagRect  = "rect"
	TagText  = "text"
)

// Attrs holds SVG attributes. Values are float64 or string; the key "text"
// carries the text content of text elements.
type Attrs map[string]any

// Op is a single rendering instruction for the element identified by
// (Class, Key).
type Op struct {
	Kind       OpKind `json:"op"`
	Class      string `json:"class"`
	Key        string `json:"key"`
	Tag        string `json:"tag,omitempty"`
	Parent     string `json:"parent,omitempty"`
	Attrs      Attrs  `json:"attrs,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Duration returns the transition length of an animate op.
func (o Op) Duration() time.Duration {
	return time.Duration(o.DurationMS) * time.Millisecond
}

// Batch is the rendering work of one tick.
type Batch struct {
	Seq     uint64 `json:"seq"`
	Cursor  int    `json:"cursor"`
	TimeKey string `json:"time_key"`
	Ops     []Op   `json:"ops"`
}

// Element is a retained element of the scene.
type Element struct {
	Class  string `json:"class"`
	Key    string `json:"key"`
	Tag    string `json:"tag"`
	Parent string `json:"parent,omitempty"`
	Attrs  Attrs  `json:"attrs"`
}

type elementID struct {
	class string
	key   string
}

// Graph is an in-memory surface holding the final state of every element
// after all applied batches. Animations are applied as their end values.
type Graph struct {
	mu       sync.RWMutex
	elements map[elementID]*Element
	order    []elementID
	last     Batch
	applied  int
}

// NewGraph returns an empty scene.
func NewGraph() *Graph {
	return &Graph{elements: make(map[elementID]*Element)}
}

// Render applies b. It satisfies the animator's surface contract.
func (g *Graph) Render(_ context.Context, b Batch) error {
	g.Apply(b)
	return nil
}

// Apply plays every op of b against the retained scene.
func (g *Graph) Apply(b Batch) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, op := range b.Ops {
		id := elementID{class: op.Class, key: op.Key}
		switch op.Kind {
		case OpCreate:
			el, ok := g.elements[id]
			if !ok {
				el = &Element{Class: op.Class, Key: op.Key, Attrs: Attrs{}}
				g.elements[id] = el
				g.order = append(g.order, id)
			}
			el.Tag = op.Tag
			el.Parent = op.Parent
			mergeAttrs(el.Attrs, op.Attrs)
		case OpAnimate, OpSet:
			if el, ok := g.elements[id]; ok {
				mergeAttrs(el.Attrs, op.Attrs)
			}
		case OpRemove:
			if _, ok := g.elements[id]; ok {
				delete(g.elements, id)
				g.order = removeID(g.order, id)
			}
		}
	}
	g.last = b
	g.applied++
}

func mergeAttrs(dst, src Attrs) {
	for k, v := range src {
		dst[k] = v
	}
}

func removeID(ids []elementID, id elementID) []elementID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Lookup returns a copy of the element (class, key).
func (g *Graph) Lookup(class, key string) (Element, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	el, ok := g.elements[elementID{class: class, key: key}]
	if !ok {
		return Element{}, false
	}
	return copyElement(el), true
}

// Elements returns copies of all elements in creation order.
func (g *Graph) Elements() []Element {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Element, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, copyElement(g.elements[id]))
	}
	return out
}

// Class returns copies of the elements of one class in creation order.
func (g *Graph) Class(class string) []Element {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Element
	for _, id := range g.order {
		if id.class == class {
			out = append(out, copyElement(g.elements[id]))
		}
	}
	return out
}

// Snapshot returns a batch that recreates the current scene from nothing,
// stamped with the sequence and cursor of the last applied batch.
func (g *Graph) Snapshot() Batch {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ops := make([]Op, 0, len(g.order))
	for _, id := range g.order {
		el := copyElement(g.elements[id])
		ops = append(ops, Op{Kind: OpCreate, Class: el.Class, Key: el.Key, Tag: el.Tag, Parent: el.Parent, Attrs: el.Attrs})
	}
	return Batch{Seq: g.last.Seq, Cursor: g.last.Cursor, TimeKey: g.last.TimeKey, Ops: ops}
}

// Applied returns how many batches were applied.
func (g *Graph) Applied() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.applied
}

func copyElement(el *Element) Element {
	attrs := make(Attrs, len(el.Attrs))
	mergeAttrs(attrs, el.Attrs)
	return Element{Class: el.Class, Key: el.Key, Tag: el.Tag, Parent: el.Parent, Attrs: attrs}
}
