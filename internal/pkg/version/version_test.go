package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetShortVersion(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })

	Version = "v1.2.0"
	GitCommit = "unknown"
	assert.Equal(t, "v1.2.0", GetShortVersion())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, "v1.2.0-0123456", GetShortVersion())
	assert.Contains(t, GetFullVersion(), "commit: 0123456789abcdef")
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}
