package neural

import "fmt"

type connKey struct {
	from, to int
}

// Lineage hands out globally unique innovation numbers, caching them by
// structural key so the same (from,to) mutation arising independently in
// different genomes receives the same number. Callers own the registry and
// thread it through genome operations; there is no package-level counter.
type Lineage struct {
	next  int
	cache map[connKey]int
}

// NewLineage creates an empty registry.
func NewLineage() *Lineage {
	return &Lineage{cache: make(map[connKey]int)}
}

// Innovation returns the innovation number for the (from,to) structural pair,
// allocating a fresh one on first sight.
func (l *Lineage) Innovation(from, to int) int {
	k := connKey{from, to}
	if n, ok := l.cache[k]; ok {
		return n
	}
	l.next++
	l.cache[k] = l.next
	return l.next
}

// Reset clears the counter and cache. Intended for test isolation.
func (l *Lineage) Reset() {
	l.next = 0
	l.cache = make(map[connKey]int)
}

// Export returns the counter and the structural cache in a serializable form.
func (l *Lineage) Export() (int, map[string]int) {
	out := make(map[string]int, len(l.cache))
	for k, v := range l.cache {
		out[fmt.Sprintf("%d>%d", k.from, k.to)] = v
	}
	return l.next, out
}

// Import restores a registry exported by Export.
func (l *Lineage) Import(next int, cache map[string]int) {
	l.next = next
	l.cache = make(map[connKey]int, len(cache))
	for k, v := range cache {
		var from, to int
		if _, err := fmt.Sscanf(k, "%d>%d", &from, &to); err == nil {
			l.cache[connKey{from, to}] = v
		}
	}
}
