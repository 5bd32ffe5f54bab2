// Package ahocorasick provides an implementation of the Aho-Corasick string matching algorithm.
// The Aho-Corasick algorithm allows matching multiple patterns simultaneously against an input
// stream in a single pass, where the cost per input byte does not depend on the number of
// patterns or on how they overlap.
//
// An Automaton is built once from an ordered pattern list and is never mutated afterwards,
// so any number of Sessions may scan with it concurrently. Each Session owns only a small
// cursor (current state, first-match flag, byte offset) and can be fed a stream chunk by
// chunk: chunk N+1 is matched as if it were concatenated to chunk N.
//
// Matching is ASCII case-insensitive. Patterns must be 7-bit ASCII; input bytes >= 128 are
// matched as if they were NUL.
package ahocorasick

import "sort"

// StateID identifies an automaton state. State ids index the transition, failure and
// output tables directly.
type StateID uint16

const (
	// MaxChars is the number of columns in each transition table row.
	// Input bytes outside [0, MaxChars) are folded to 0 before lookup.
	MaxChars = 128

	// Undefined marks a missing transition. It is also the exclusive upper bound on the
	// number of states an automaton may require.
	Undefined StateID = 0xFFFF

	// rootState is the empty-prefix state. It is the initial state of every session and
	// the end of every failure chain.
	rootState StateID = 0
)

// MatchSet is an unordered set of pattern indices. A nil MatchSet means no match.
type MatchSet map[int]struct{}

// NewMatchSet returns a set holding the given indices.
func NewMatchSet(indices ...int) MatchSet {
	m := make(MatchSet, len(indices))
	for _, idx := range indices {
		m[idx] = struct{}{}
	}
	return m
}

// Add inserts indices into the set.
func (m MatchSet) Add(indices ...int) {
	for _, idx := range indices {
		m[idx] = struct{}{}
	}
}

// Contains reports whether idx is in the set.
func (m MatchSet) Contains(idx int) bool {
	_, ok := m[idx]
	return ok
}

// Len returns the number of indices in the set.
func (m MatchSet) Len() int {
	return len(m)
}

// Merge adds every index of other to m.
func (m MatchSet) Merge(other MatchSet) {
	for idx := range other {
		m[idx] = struct{}{}
	}
}

// Indices returns the set's members in ascending order.
func (m MatchSet) Indices() []int {
	if len(m) == 0 {
		return nil
	}
	indices := make([]int, 0, len(m))
	for idx := range m {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// isAlpha reports whether c is an ASCII letter.
func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// otherCase returns the opposite-case counterpart of an ASCII letter.
func otherCase(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c - ('a' - 'A'), true
	case c >= 'A' && c <= 'Z':
		return c + ('a' - 'A'), true
	}
	return 0, false
}
