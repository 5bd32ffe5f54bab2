package ahocorasick

// Matcher is the one-shot matching interface shared by a fixed Automaton and a
// Reloader whose automaton may be replaced between calls.
type Matcher interface {
	// Match returns the indices of every pattern occurring in input, or nil.
	// Matching is ASCII case-insensitive.
	Match(input []byte) MatchSet

	// MatchBatch matches each input independently.
	MatchBatch(inputs [][]byte) []MatchSet

	// PatternCount returns the number of patterns in the matcher.
	PatternCount() int
}

var (
	_ Matcher = (*Automaton)(nil)
	_ Matcher = (*Reloader)(nil)
)
