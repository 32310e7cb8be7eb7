// Package frames converts flat time-stamped records into ranked frames,
// one per distinct time key.
package frames

import (
	"sort"

	"github.com/okian/barrace/internal/domain/model"
)

// cell identifies a record by time key and entity.
type cell struct {
	timeKey string
	entity  string
}

// Universe returns the distinct entities in order of first appearance.
func Universe(records []model.Record) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Entity]; ok {
			continue
		}
		seen[r.Entity] = struct{}{}
		out = append(out, r.Entity)
	}
	return out
}

// TimeKeys returns the distinct time keys sorted ascending.
func TimeKeys(records []model.Record) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.TimeKey]; ok {
			continue
		}
		seen[r.TimeKey] = struct{}{}
		out = append(out, r.TimeKey)
	}
	sort.Strings(out)
	return out
}

// Build produces one frame per distinct time key, ordered ascending by key.
//
// Every frame holds one entry per entity of the universe. An entity without
// a record at a time key is entered with value 0. When several records share
// a (time key, entity) pair the first one wins. Entries are sorted by value,
// largest first; ties keep universe order.
func Build(records []model.Record) []model.Frame {
	universe := Universe(records)
	keys := TimeKeys(records)

	values := make(map[cell]float64, len(records))
	for _, r := range records {
		c := cell{timeKey: r.TimeKey, entity: r.Entity}
		if _, ok := values[c]; ok {
			continue
		}
		values[c] = r.Value
	}

	out := make([]model.Frame, 0, len(keys))
	for _, key := range keys {
		entries := make([]model.Entry, len(universe))
		for i, entity := range universe {
			entries[i] = model.Entry{Entity: entity, Value: values[cell{timeKey: key, entity: entity}]}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Value > entries[j].Value
		})
		out = append(out, model.Frame{TimeKey: key, Entries: entries})
	}
	return out
}
