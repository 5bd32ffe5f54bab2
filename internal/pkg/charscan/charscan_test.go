package charscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanner_IsStop(t *testing.T) {
	s := New([]byte("';"))

	assert.True(t, s.IsStop('\''))
	assert.True(t, s.IsStop(';'))
	assert.False(t, s.IsStop('a'))
	assert.False(t, s.IsStop('-'))
	assert.False(t, s.IsStop(0xFF))
}

func TestScanner_Suspicious(t *testing.T) {
	tests := []struct {
		name  string
		stop  string
		input string
		want  bool
	}{
		{"clean", "';", "select name from users", false},
		{"stop byte", "';", "name = 'x", true},
		{"double dash", "';", "1 -- comment", true},
		{"single dashes", "';", "a-b-c", false},
		{"leading dash", "';", "-1", false},
		{"empty input", "';", "", false},
		{"empty stop set", "", "'; drop", false},
		{"high byte stop", "\xff", "caf\xff", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New([]byte(tt.stop))
			assert.Equal(t, tt.want, s.Suspicious([]byte(tt.input)))
		})
	}
}

func TestScanner_DoubleDashAcrossChunks(t *testing.T) {
	s := New(nil)

	assert.False(t, s.Suspicious([]byte("abc-")))
	assert.True(t, s.Suspicious([]byte("-def")))
}

func TestScanner_PrevUnchangedOnHit(t *testing.T) {
	s := New([]byte(";"))

	// The hit on ';' returns before recording it, so the dash before it is
	// still the previous byte.
	assert.True(t, s.Suspicious([]byte("a-;")))
	assert.True(t, s.Suspicious([]byte("-")))
}

func TestScanner_Reset(t *testing.T) {
	s := New(nil)

	assert.False(t, s.Suspicious([]byte("x-")))
	s.Reset()
	assert.False(t, s.Suspicious([]byte("-y")))
}
