package ahocorasick

import "sync/atomic"

// Automaton is a compiled Aho-Corasick state machine with a dense transition table.
// Using a fixed-size row per state gives O(1) transitions and good cache locality;
// restricting the alphabet to ASCII keeps a row at 256 bytes.
//
// An Automaton is immutable once Build returns and may be shared by any number of
// Sessions across goroutines without locking.
type Automaton struct {
	// patterns stores the original patterns for result reporting.
	patterns []string

	// maxStates is the worst-case state count computed during validation.
	maxStates int

	// trans is the transition table, indexed by state then input byte.
	// Undefined indicates no transition (the failure link must be followed).
	trans [][MaxChars]StateID

	// fail is the state to fall back to when a state has no transition for a byte.
	fail []StateID

	// out holds, per state, the sorted indices of patterns ending there,
	// including those inherited through failure links.
	out [][]int

	// holders counts the builder's own reference plus every open Session.
	holders atomic.Int64
}

// newAutomaton creates an automaton holding only the root state, with room for
// maxStates states.
func newAutomaton(patterns []string, maxStates int) *Automaton {
	a := &Automaton{
		patterns:  make([]string, len(patterns)),
		maxStates: maxStates,
		trans:     make([][MaxChars]StateID, 0, maxStates),
		fail:      make([]StateID, 0, maxStates),
		out:       make([][]int, 0, maxStates),
	}
	copy(a.patterns, patterns)
	a.addState()
	a.holders.Store(1)
	return a
}

// addState appends a state with every transition undefined and returns its id.
func (a *Automaton) addState() StateID {
	var row [MaxChars]StateID
	for i := range row {
		row[i] = Undefined
	}
	id := StateID(len(a.trans))
	a.trans = append(a.trans, row)
	a.fail = append(a.fail, rootState)
	a.out = append(a.out, nil)
	return id
}

// next returns the state reached from state on input byte c.
// Bytes outside the ASCII range are folded to 0. The loop terminates because the
// root row has no Undefined entry.
func (a *Automaton) next(state StateID, c byte) StateID {
	if c >= MaxChars {
		c = 0
	}
	for a.trans[state][c] == Undefined {
		state = a.fail[state]
	}
	return a.trans[state][c]
}

// NewSession opens a session positioned at the root state.
// When firstMatch is true, Execute returns as soon as any pattern matches.
func (a *Automaton) NewSession(firstMatch bool) *Session {
	a.holders.Add(1)
	return &Session{
		automaton:          a,
		state:              rootState,
		returnOnFirstMatch: firstMatch,
	}
}

// Match finds all patterns occurring anywhere in input.
// It uses a throwaway session, so it is safe for concurrent use.
func (a *Automaton) Match(input []byte) MatchSet {
	s := a.NewSession(false)
	defer s.Close()
	return s.Execute(input)
}

// MatchBatch matches multiple independent inputs. Each input starts from the root.
func (a *Automaton) MatchBatch(inputs [][]byte) []MatchSet {
	results := make([]MatchSet, len(inputs))
	s := a.NewSession(false)
	defer s.Close()
	for i, input := range inputs {
		s.Reset()
		results[i] = s.Execute(input)
	}
	return results
}

// Patterns returns a copy of the pattern list the automaton was built from.
func (a *Automaton) Patterns() []string {
	patterns := make([]string, len(a.patterns))
	copy(patterns, a.patterns)
	return patterns
}

// Pattern returns the pattern with the given index, or "" if idx is out of range.
func (a *Automaton) Pattern(idx int) string {
	if idx < 0 || idx >= len(a.patterns) {
		return ""
	}
	return a.patterns[idx]
}

// PatternCount returns the number of patterns in the automaton.
func (a *Automaton) PatternCount() int {
	return len(a.patterns)
}

// StateCount returns the number of states actually allocated.
func (a *Automaton) StateCount() int {
	return len(a.trans)
}

// MaxStates returns the worst-case state bound computed for the pattern set.
func (a *Automaton) MaxStates() int {
	return a.maxStates
}

// Holders returns the number of live references to the automaton: one for the
// builder's result plus one per open Session. Diagnostic only.
func (a *Automaton) Holders() int {
	return int(a.holders.Load())
}
