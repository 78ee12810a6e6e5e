package resolve

import (
	"sort"
	"sync"

	"metagrid/internal/catalog"
)

// Miss is one distinct name that could not be resolved
type Miss struct {
	Kind  catalog.Kind `json:"kind"`
	Name  string       `json:"name"`
	Count int          `json:"count"`
}

type missKey struct {
	kind catalog.Kind
	name string
}

// Report collects unresolved names for one run
type Report struct {
	mu     sync.Mutex
	counts map[missKey]int
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{counts: make(map[missKey]int)}
}

// Record notes a miss and reports whether it is the first one for (kind, name)
func (r *Report) Record(kind catalog.Kind, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := missKey{kind: kind, name: name}
	r.counts[k]++
	return r.counts[k] == 1
}

// Len returns the number of distinct misses
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.counts)
}

// Misses returns the distinct misses sorted by kind then name
func (r *Report) Misses() []Miss {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Miss, 0, len(r.counts))
	for k, n := range r.counts {
		out = append(out, Miss{Kind: k.kind, Name: k.name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}
