// Package palette assigns a stable color to every entity of a race.
package palette

import "sync"

// Category10 is the ten-color qualitative scheme used by default.
var Category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Palette maps entity ids to colors. Colors are assigned by position in
// the entity universe, cycling through the scheme, and never change once
// assigned. Entities outside the initial universe get the next slot on
// first lookup.
type Palette struct {
	mu       sync.Mutex
	scheme   []string
	assigned map[string]string
	next     int
}

// New assigns colors to entities in order. An empty scheme falls back to
// Category10.
func New(entities []string, scheme ...string) *Palette {
	if len(scheme) == 0 {
		scheme = Category10
	}
	p := &Palette{
		scheme:   append([]string(nil), scheme...),
		assigned: make(map[string]string, len(entities)),
	}
	for _, e := range entities {
		p.assignLocked(e)
	}
	return p
}

func (p *Palette) assignLocked(entity string) string {
	if c, ok := p.assigned[entity]; ok {
		return c
	}
	c := p.scheme[p.next%len(p.scheme)]
	p.next++
	p.assigned[entity] = c
	return c
}

// Color returns the color of entity.
func (p *Palette) Color(entity string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assignLocked(entity)
}

// Len returns the number of entities with an assigned color.
func (p *Palette) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.assigned)
}
