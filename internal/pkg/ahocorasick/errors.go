package ahocorasick

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern is returned when a pattern contains a byte >= 128.
	ErrInvalidPattern = errors.New("non-ASCII byte in pattern")

	// ErrCapacityExceeded is returned when the worst-case state count of a pattern set
	// reaches the Undefined sentinel.
	ErrCapacityExceeded = errors.New("pattern set exceeds automaton capacity")

	// ErrNoAutomaton is returned by a Reloader that has no built automaton.
	ErrNoAutomaton = errors.New("no automaton available")
)

// BuildError describes why an automaton could not be built.
// It matches ErrInvalidPattern or ErrCapacityExceeded with errors.Is.
type BuildError struct {
	// Kind is ErrInvalidPattern or ErrCapacityExceeded.
	Kind error

	// Pattern and Offset locate the offending byte for ErrInvalidPattern.
	Pattern int
	Offset  int
	Byte    byte

	// Bound and Limit are set for ErrCapacityExceeded.
	Bound int
	Limit int
}

func (e *BuildError) Error() string {
	switch e.Kind {
	case ErrInvalidPattern:
		return fmt.Sprintf("%v: pattern %d has byte 0x%02x at offset %d",
			e.Kind, e.Pattern, e.Byte, e.Offset)
	case ErrCapacityExceeded:
		return fmt.Sprintf("%v: total state requirement, %d, reaches limit %d",
			e.Kind, e.Bound, e.Limit)
	}
	return fmt.Sprintf("automaton build failed: %v", e.Kind)
}

func (e *BuildError) Unwrap() error {
	return e.Kind
}
