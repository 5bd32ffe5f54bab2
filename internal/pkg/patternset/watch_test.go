package patternset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "patterns.txt", "alpha\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 10)
	w, err := Watch(ctx, path, func(p []string) { changes <- p })
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("beta\ngamma\n"), 0600))

	select {
	case got := <-changes:
		assert.Equal(t, []string{"beta", "gamma"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
	assert.GreaterOrEqual(t, w.Stats().Reloads, uint64(1))
}

func TestWatch_ReloadsOnRenameOver(t *testing.T) {
	path := writeFile(t, "patterns.txt", "alpha\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 10)
	_, err := Watch(ctx, path, func(p []string) { changes <- p })
	require.NoError(t, err)

	tmp := filepath.Join(filepath.Dir(path), ".patterns.txt.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("delta\n"), 0600))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case got := <-changes:
		assert.Equal(t, []string{"delta"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after rename")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path := writeFile(t, "patterns.txt", "alpha\n")

	changes := make(chan []string, 10)
	w := NewWatcher(path, func(p []string) { changes <- p })
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	other := filepath.Join(filepath.Dir(path), "other.txt")
	require.NoError(t, os.WriteFile(other, []byte("noise\n"), 0600))

	select {
	case got := <-changes:
		t.Fatalf("unexpected reload: %v", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StartTwice(t *testing.T) {
	path := writeFile(t, "patterns.txt", "alpha\n")

	w := NewWatcher(path, func([]string) {})
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.Stats().Running)
}
