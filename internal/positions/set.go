// FILE: internal/positions/set.go
package positions

import (
	"fmt"
	"log"
	"slices"

	"chesspipe/internal/core"
	"chesspipe/internal/movetable"
)

// Set maps each distinct position to its evaluation, in first-seen order.
// Writes to distinct entries may run concurrently; keys are fixed once
// built and must not be deleted while a fill is running.
type Set struct {
	keys   []string
	values []core.Eval
	index  map[string]int
}

func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Deduplicate collects the distinct positions of t, every value unset
func Deduplicate(t *movetable.Table) *Set {
	s := NewSet()
	for _, row := range t.Rows {
		s.add(row.Position)
	}
	stats := Summarize(t, s)
	log.Printf("Positions: %d unique of %d plies (%.1f%% redundant)", stats.Unique, stats.Rows, stats.Reduction()*100)
	return s
}

func (s *Set) add(key string) {
	if _, ok := s.index[key]; ok {
		return
	}
	s.index[key] = len(s.keys)
	s.keys = append(s.keys, key)
	s.values = append(s.values, core.Eval{})
}

func (s *Set) Len() int {
	return len(s.keys)
}

// Keys returns a copy of the positions in first-seen order
func (s *Set) Keys() []string {
	return slices.Clone(s.keys)
}

func (s *Set) Get(key string) (core.Eval, bool) {
	i, ok := s.index[key]
	if !ok {
		return core.Eval{}, false
	}
	return s.values[i], true
}

// Set stores the evaluation of a known position. Unknown keys are rejected so
// the set never grows past the positions it was built from.
func (s *Set) Set(key string, e core.Eval) error {
	i, ok := s.index[key]
	if !ok {
		return fmt.Errorf("position %q not in set", key)
	}
	s.values[i] = e
	return nil
}

// At returns the i-th position and its value
func (s *Set) At(i int) (string, core.Eval) {
	return s.keys[i], s.values[i]
}

// SetAt stores the value of the i-th position
func (s *Set) SetAt(i int, e core.Eval) {
	s.values[i] = e
}

// Delete drops a position, reporting whether it was present
func (s *Set) Delete(key string) bool {
	i, ok := s.index[key]
	if !ok {
		return false
	}
	delete(s.index, key)
	s.keys = slices.Delete(s.keys, i, i+1)
	s.values = slices.Delete(s.values, i, i+1)
	for j := i; j < len(s.keys); j++ {
		s.index[s.keys[j]] = j
	}
	return true
}

// Range calls fn for each entry in order until fn returns false
func (s *Set) Range(fn func(key string, e core.Eval) bool) {
	for i, k := range s.keys {
		if !fn(k, s.values[i]) {
			return
		}
	}
}

// Evaluated counts entries holding a value
func (s *Set) Evaluated() int {
	n := 0
	for _, v := range s.values {
		if v.IsSet() {
			n++
		}
	}
	return n
}

// Stats summarises a deduplication
type Stats struct {
	Rows   int
	Unique int
}

func Summarize(t *movetable.Table, s *Set) Stats {
	return Stats{Rows: t.Len(), Unique: s.Len()}
}

// Reduction is the share of plies whose position repeats an earlier one
func (st Stats) Reduction() float64 {
	if st.Rows == 0 {
		return 0
	}
	return 1 - float64(st.Unique)/float64(st.Rows)
}
