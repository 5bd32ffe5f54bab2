package ahocorasick

import (
	"time"

	"github.com/endorses/acscan/internal/pkg/logger"
)

// Builder constructs Aho-Corasick automata from patterns.
type Builder struct{}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build constructs an automaton from patterns using a default Builder.
func Build(patterns []string) (*Automaton, error) {
	return NewBuilder().Build(patterns)
}

// BuildBytes is Build for callers holding patterns as byte slices.
func BuildBytes(patterns [][]byte) (*Automaton, error) {
	strs := make([]string, len(patterns))
	for i, p := range patterns {
		strs[i] = string(p)
	}
	return NewBuilder().Build(strs)
}

// Build constructs an Aho-Corasick automaton from the given patterns.
// The build process has four phases:
//  1. Validation: reject non-ASCII patterns and pattern sets too large for 16-bit state ids
//  2. Trie construction: insert all patterns, sharing one state between both cases of a letter
//  3. Root completion: undefined root transitions loop back to the root
//  4. Failure link computation: BFS over the trie, merging outputs along failure links
//
// No partial automaton is ever returned: on error the result is nil.
func (b *Builder) Build(patterns []string) (*Automaton, error) {
	startTime := time.Now()

	bound, err := stateBound(patterns)
	if err != nil {
		return nil, err
	}

	a := newAutomaton(patterns, bound)

	b.buildTrie(a)
	b.completeRoot(a)
	b.computeFailureLinks(a)

	logger.Debug("Built AC automaton",
		"pattern_count", len(a.patterns),
		"state_count", len(a.trans),
		"max_states", bound,
		"build_duration", time.Since(startTime))

	return a, nil
}

// stateBound validates patterns and returns the worst-case number of states they need:
// one per pattern byte, one more per alphabetic byte for its case-duplicate edge, and
// one for the root.
func stateBound(patterns []string) (int, error) {
	bound := 1
	for i, p := range patterns {
		bound += len(p)
		for j := 0; j < len(p); j++ {
			c := p[j]
			if c >= MaxChars {
				return 0, &BuildError{Kind: ErrInvalidPattern, Pattern: i, Offset: j, Byte: c}
			}
			if isAlpha(c) {
				bound++
			}
		}
	}

	if bound >= int(Undefined) {
		return 0, &BuildError{Kind: ErrCapacityExceeded, Bound: bound, Limit: int(Undefined)}
	}
	return bound, nil
}

// buildTrie inserts all patterns into the trie in order.
// When a letter's edge is followed or created, the opposite-case column of the same
// source state is pointed at the same destination, so "Ab", "aB" and "AB" all walk the
// states created for "ab".
func (b *Builder) buildTrie(a *Automaton) {
	for patternIdx, pattern := range a.patterns {
		current := rootState

		for i := 0; i < len(pattern); i++ {
			char := pattern[i]
			previous := current

			next := a.trans[previous][char]
			if next == Undefined {
				next = a.addState()
				a.trans[previous][char] = next
			}
			current = next

			if alt, ok := otherCase(char); ok && a.trans[previous][alt] == Undefined {
				a.trans[previous][alt] = current
			}
		}

		a.out[current] = insertIndex(a.out[current], patternIdx)
	}
}

// completeRoot rewrites every undefined root transition to a self-loop. Afterwards the
// root row has no Undefined entry, which is what terminates every failure chase.
func (b *Builder) completeRoot(a *Automaton) {
	for c := 0; c < MaxChars; c++ {
		if a.trans[rootState][c] == Undefined {
			a.trans[rootState][c] = rootState
		}
	}
}

// computeFailureLinks uses BFS to compute failure links for all states.
// The failure link for a state S points to the longest proper suffix of the
// path to S that is also a prefix of some pattern. A state's failure target is
// always shallower than the state itself, so breadth-first order guarantees the
// target's own output set is final before it is merged.
func (b *Builder) computeFailureLinks(a *Automaton) {
	queue := make([]StateID, 0, len(a.trans))

	// Both case columns of a letter point at the same child, so a state can be
	// reached twice from its parent. It must only be processed once.
	queued := make([]bool, len(a.trans))
	queued[rootState] = true

	// States at depth 1 fail to the root. They inherit the root's own output,
	// which is non-empty only when an empty pattern was supplied.
	for c := 0; c < MaxChars; c++ {
		next := a.trans[rootState][c]
		if queued[next] {
			continue
		}
		queued[next] = true
		a.fail[next] = rootState
		a.out[next] = mergeIndices(a.out[next], a.out[rootState])
		queue = append(queue, next)
	}

	for head := 0; head < len(queue); head++ {
		state := queue[head]

		for c := 0; c < MaxChars; c++ {
			next := a.trans[state][c]
			if next == Undefined || queued[next] {
				continue
			}
			queued[next] = true

			// Walk up the failure chain until some state has a transition
			// for c. The root always has one.
			failure := a.fail[state]
			for a.trans[failure][c] == Undefined {
				failure = a.fail[failure]
			}
			failure = a.trans[failure][c]
			a.fail[next] = failure

			// Outputs of the failure target are suffix matches of next.
			a.out[next] = mergeIndices(a.out[next], a.out[failure])

			queue = append(queue, next)
		}
	}
}

// insertIndex adds idx to the sorted, duplicate-free slice s.
func insertIndex(s []int, idx int) []int {
	i := 0
	for i < len(s) && s[i] < idx {
		i++
	}
	if i < len(s) && s[i] == idx {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = idx
	return s
}

// mergeIndices returns the sorted union of two sorted, duplicate-free slices.
func mergeIndices(dst, src []int) []int {
	if len(src) == 0 {
		return dst
	}
	if len(dst) == 0 {
		return append([]int(nil), src...)
	}

	merged := make([]int, 0, len(dst)+len(src))
	i, j := 0, 0
	for i < len(dst) && j < len(src) {
		switch {
		case dst[i] < src[j]:
			merged = append(merged, dst[i])
			i++
		case dst[i] > src[j]:
			merged = append(merged, src[j])
			j++
		default:
			merged = append(merged, dst[i])
			i++
			j++
		}
	}
	merged = append(merged, dst[i:]...)
	merged = append(merged, src[j:]...)
	return merged
}
