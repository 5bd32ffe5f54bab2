// Package charscan flags input containing any byte from a fixed stop set, or
// the SQL comment opener "--", across a stream of chunks.
package charscan

const dash = '-'

// initialPrev is the previous byte before any input. It is not a dash, so a
// stream that starts with a single '-' is not flagged.
const initialPrev = 0xFF

// Scanner tests chunks of a stream against a 256-entry stop-byte table.
// A Scanner is not safe for concurrent use.
type Scanner struct {
	stop [256]bool
	prev byte
}

// New creates a Scanner that stops on every byte in stopChars.
func New(stopChars []byte) *Scanner {
	s := &Scanner{prev: initialPrev}
	for _, c := range stopChars {
		s.stop[c] = true
	}
	return s
}

// IsStop reports whether b is in the stop set.
func (s *Scanner) IsStop(b byte) bool {
	return s.stop[b]
}

// Suspicious reports whether p contains a stop byte, or a dash directly
// following another dash. The previous byte carries over between calls, so a
// "--" split across two chunks is found. On a hit the scan returns at once
// and the previous byte is left at its value before the hit.
func (s *Scanner) Suspicious(p []byte) bool {
	for _, b := range p {
		if s.stop[b] {
			return true
		}
		if b == dash && s.prev == dash {
			return true
		}
		s.prev = b
	}
	return false
}

// Reset forgets the previous byte so the next call starts a new stream.
func (s *Scanner) Reset() {
	s.prev = initialPrev
}
