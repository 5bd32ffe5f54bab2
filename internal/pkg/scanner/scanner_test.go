package scanner

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/endorses/acscan/internal/pkg/ahocorasick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pronouns = []string{"he", "him", "his", "she", "her", "hers"}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New([]string{"ok", "caf\xc3\xa9"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ahocorasick.ErrInvalidPattern)

	var buildErr *ahocorasick.BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, 1, buildErr.Pattern)
}

func TestScanner_IsSuspicious(t *testing.T) {
	s, err := New(pronouns)
	require.NoError(t, err)

	assert.Equal(t, []string{"he", "her", "hers"}, s.IsSuspicious([]byte("bruce said hers was awesome")))
	assert.Equal(t, []string{"he", "his", "she", "her", "hers"}, s.IsSuspicious([]byte("ahishers")))
	assert.Nil(t, s.IsSuspicious([]byte("nothing to see")))
	assert.Nil(t, s.IsSuspicious(nil))
}

func TestScanner_IsSuspiciousFirstMatch(t *testing.T) {
	s, err := New(pronouns, WithFirstMatch(true))
	require.NoError(t, err)
	assert.True(t, s.FirstMatch())

	// The scan stops where "he" ends, before "her" and "hers" complete.
	assert.Equal(t, []string{"he"}, s.IsSuspicious([]byte("bruce said hers was awesome")))
}

func TestScanner_Options(t *testing.T) {
	a, err := ahocorasick.Build(pronouns)
	require.NoError(t, err)

	s := FromAutomaton(a, WithChunkSize(16))
	assert.Same(t, a, s.Automaton())
	assert.Equal(t, 16, s.ChunkSize())
	assert.False(t, s.FirstMatch())

	s = FromAutomaton(a, WithChunkSize(0))
	assert.Equal(t, 64*1024, s.ChunkSize())
}

func TestStream_AcrossWrites(t *testing.T) {
	s, err := New([]string{"haystack", "needle"})
	require.NoError(t, err)

	st := s.NewStream()
	defer st.Close()
	assert.NotEmpty(t, st.ID())

	n, err := fmt.Fprint(st, "a hay")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Nil(t, st.Matches())

	_, err = io.WriteString(st, "STACK with a nee")
	require.NoError(t, err)
	assert.Equal(t, []string{"haystack"}, st.Matches())

	_, err = st.Write([]byte("dle"))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, st.Indices())
	assert.Equal(t, int64(24), st.BytesScanned())
}

func TestStream_Copy(t *testing.T) {
	s, err := New([]string{"needle"}, WithChunkSize(3))
	require.NoError(t, err)

	st := s.NewStream()
	defer st.Close()

	_, err = io.CopyBuffer(st, strings.NewReader("hay hay needle hay"), make([]byte, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"needle"}, st.Matches())
}

func TestStream_FirstMatchDiscardsRest(t *testing.T) {
	s, err := New([]string{"one", "two"}, WithFirstMatch(true))
	require.NoError(t, err)

	st := s.NewStream()
	defer st.Close()

	assert.False(t, st.Done())
	_, err = st.Write([]byte("xx one xx"))
	require.NoError(t, err)
	assert.True(t, st.Done())
	assert.Equal(t, int64(6), st.BytesScanned())

	n, err := st.Write([]byte("two"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"one"}, st.Matches())
}

func TestStream_ResetAndClose(t *testing.T) {
	s, err := New([]string{"abc"})
	require.NoError(t, err)
	holders := s.Automaton().Holders()

	st := s.NewStream()
	assert.Equal(t, holders+1, s.Automaton().Holders())

	_, _ = st.Write([]byte("ab"))
	st.Reset()
	_, _ = st.Write([]byte("c"))
	assert.Nil(t, st.Matches())
	assert.Equal(t, int64(1), st.BytesScanned())

	require.NoError(t, st.Close())
	require.NoError(t, st.Close())
	assert.Equal(t, holders, s.Automaton().Holders())

	_, err = st.Write([]byte("abc"))
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestStream_IDsAreUnique(t *testing.T) {
	s, err := New([]string{"x"})
	require.NoError(t, err)

	a, b := s.NewStream(), s.NewStream()
	defer a.Close()
	defer b.Close()
	assert.NotEqual(t, a.ID(), b.ID())
}
