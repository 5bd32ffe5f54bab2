package ahocorasick

// Session is a streaming cursor over a shared Automaton.
// Successive Execute calls continue from where the previous one stopped, so a stream
// split into chunks produces the same matches as the whole stream scanned at once.
//
// A Session is not safe for concurrent use. Open one Session per stream instead;
// opening or cloning a Session never copies automaton tables.
type Session struct {
	automaton          *Automaton
	state              StateID
	returnOnFirstMatch bool

	// offset is the number of bytes consumed since the last Reset.
	offset int64

	closed bool
}

// Execute feeds p through the automaton and returns the indices of every pattern that
// ended inside p, or nil if none did.
//
// In first-match mode Execute returns as soon as the first matching byte is consumed;
// the rest of p is left unread and Offset reports how far the scan got.
func (s *Session) Execute(p []byte) MatchSet {
	a := s.automaton
	state := s.state

	var found MatchSet
	for i, c := range p {
		state = a.next(state, c)

		matches := a.out[state]
		if len(matches) == 0 {
			continue
		}
		if found == nil {
			found = make(MatchSet, len(matches))
		}
		found.Add(matches...)

		if s.returnOnFirstMatch {
			s.state = state
			s.offset += int64(i + 1)
			return found
		}
	}

	s.state = state
	s.offset += int64(len(p))
	return found
}

// Reset moves the session back to the root state. The automaton is untouched.
func (s *Session) Reset() {
	s.state = rootState
	s.offset = 0
}

// Clone returns an independent session over the same automaton, starting from this
// session's current state, mode and offset.
func (s *Session) Clone() *Session {
	s.automaton.holders.Add(1)
	return &Session{
		automaton:          s.automaton,
		state:              s.state,
		returnOnFirstMatch: s.returnOnFirstMatch,
		offset:             s.offset,
	}
}

// Close releases the session's hold on its automaton. Closing twice is a no-op.
// A closed session may still be used; it just no longer counts as a holder.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.automaton.holders.Add(-1)
}

// State returns the current automaton state.
func (s *Session) State() StateID {
	return s.state
}

// Offset returns the number of bytes consumed since the last Reset.
func (s *Session) Offset() int64 {
	return s.offset
}

// FirstMatchOnly reports whether Execute stops at the first match.
func (s *Session) FirstMatchOnly() bool {
	return s.returnOnFirstMatch
}

// Automaton returns the shared automaton the session runs on.
func (s *Session) Automaton() *Automaton {
	return s.automaton
}
