// Package scanner is the high-level matching API: it owns a built automaton
// and maps match indices back to pattern text for one-shot inputs, io.Writer
// streams, readers and files.
package scanner

import (
	"fmt"
	"time"

	"github.com/endorses/acscan/internal/pkg/ahocorasick"
	"github.com/endorses/acscan/internal/pkg/constants"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/endorses/acscan/internal/pkg/metrics"
)

type options struct {
	firstMatch bool
	chunkSize  int
}

// Option configures a Scanner.
type Option func(*options)

// WithFirstMatch makes every session stop at the first match it finds.
func WithFirstMatch(firstMatch bool) Option {
	return func(o *options) {
		o.firstMatch = firstMatch
	}
}

// WithChunkSize sets the read size used by ScanReader and ScanFiles.
// Values below constants.MinChunkSize are ignored.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n >= constants.MinChunkSize {
			o.chunkSize = n
		}
	}
}

// Scanner matches inputs against one immutable automaton. It is safe for
// concurrent use; every scan opens its own session.
type Scanner struct {
	automaton  *ahocorasick.Automaton
	firstMatch bool
	chunkSize  int
}

// New builds an automaton from patterns and wraps it in a Scanner.
func New(patterns []string, opts ...Option) (*Scanner, error) {
	start := time.Now()
	a, err := ahocorasick.Build(patterns)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveBuild(duration, len(patterns), 0, err)
		return nil, fmt.Errorf("failed to build automaton: %w", err)
	}
	metrics.ObserveBuild(duration, a.PatternCount(), a.StateCount(), nil)

	return FromAutomaton(a, opts...), nil
}

// FromAutomaton wraps an existing automaton.
func FromAutomaton(a *ahocorasick.Automaton, opts ...Option) *Scanner {
	o := options{chunkSize: constants.DefaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Scanner{
		automaton:  a,
		firstMatch: o.firstMatch,
		chunkSize:  o.chunkSize,
	}
}

// Automaton returns the automaton the scanner matches against.
func (s *Scanner) Automaton() *ahocorasick.Automaton {
	return s.automaton
}

// FirstMatch reports whether scans stop at the first match.
func (s *Scanner) FirstMatch() bool {
	return s.firstMatch
}

// ChunkSize returns the read size used for readers and files.
func (s *Scanner) ChunkSize() int {
	return s.chunkSize
}

// IsSuspicious scans input with a fresh session and returns the matched
// patterns in ascending index order, or nil when nothing matched.
func (s *Scanner) IsSuspicious(input []byte) []string {
	session := s.automaton.NewSession(s.firstMatch)
	defer session.Close()

	found := session.Execute(input)
	metrics.ObserveScan(metrics.SourceInput, session.Offset(), found.Len(), nil)
	if found == nil {
		return nil
	}

	logger.Debug("Input matched", "matches", found.Len(), "bytes", len(input))
	return s.patternsFor(found.Indices())
}

// patternsFor maps pattern indices to their text.
func (s *Scanner) patternsFor(indices []int) []string {
	if len(indices) == 0 {
		return nil
	}
	patterns := make([]string, len(indices))
	for i, idx := range indices {
		patterns[i] = s.automaton.Pattern(idx)
	}
	return patterns
}
