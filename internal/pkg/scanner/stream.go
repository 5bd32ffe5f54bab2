package scanner

import (
	"errors"

	"github.com/endorses/acscan/internal/pkg/ahocorasick"
	"github.com/endorses/acscan/internal/pkg/metrics"
	"github.com/google/uuid"
)

// ErrStreamClosed is returned by Write after Close.
var ErrStreamClosed = errors.New("stream closed")

// Stream is an io.Writer that feeds everything written to it through one
// session, so patterns split across writes are found. A Stream is not safe
// for concurrent use.
type Stream struct {
	id      string
	scanner *Scanner
	session *ahocorasick.Session
	found   ahocorasick.MatchSet
	closed  bool
}

// NewStream opens a stream with a new session on the scanner's automaton.
func (s *Scanner) NewStream() *Stream {
	metrics.OpenStreams.Inc()
	return &Stream{
		id:      uuid.NewString(),
		scanner: s,
		session: s.automaton.NewSession(s.firstMatch),
		found:   ahocorasick.NewMatchSet(),
	}
}

// Write scans p. It always consumes all of p; in first-match mode input
// written after the first match is discarded.
func (st *Stream) Write(p []byte) (int, error) {
	if st.closed {
		return 0, ErrStreamClosed
	}
	if st.Done() {
		return len(p), nil
	}
	st.found.Merge(st.session.Execute(p))
	return len(p), nil
}

// Done reports whether a first-match stream has found its match.
func (st *Stream) Done() bool {
	return st.scanner.firstMatch && st.found.Len() > 0
}

// Indices returns the indices of all patterns found so far, ascending.
func (st *Stream) Indices() []int {
	return st.found.Indices()
}

// Matches returns the patterns found so far in ascending index order.
func (st *Stream) Matches() []string {
	return st.scanner.patternsFor(st.found.Indices())
}

// BytesScanned returns the number of bytes the session consumed since the
// last Reset.
func (st *Stream) BytesScanned() int64 {
	return st.session.Offset()
}

// ID returns the stream's unique identifier.
func (st *Stream) ID() string {
	return st.id
}

// Reset starts a new stream on the same session, forgetting matches.
func (st *Stream) Reset() {
	st.session.Reset()
	st.found = ahocorasick.NewMatchSet()
}

// Close releases the stream's session. It is safe to call more than once.
func (st *Stream) Close() error {
	if st.closed {
		return nil
	}
	st.closed = true
	metrics.ObserveScan(metrics.SourceStream, st.session.Offset(), st.found.Len(), nil)
	metrics.OpenStreams.Dec()
	st.session.Close()
	return nil
}
