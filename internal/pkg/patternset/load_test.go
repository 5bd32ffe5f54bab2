package patternset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadLines(t *testing.T) {
	path := writeFile(t, "patterns.txt", `# suspicious words
he
  she

his	
# trailing comment
hers
`)

	patterns, err := LoadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"he", "she", "his", "hers"}, patterns)
}

func TestLoadLines_Missing(t *testing.T) {
	_, err := LoadLines(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "patterns.yaml", `patterns:
  - id: sqli-union
    pattern: "union select"
    description: SQL injection probe
  - id: traversal
    pattern: "../"
    enabled: true
  - id: retired
    pattern: "cmd.exe"
    enabled: false
  - pattern: "<script"
`)

	patterns, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"union select", "../", "<script"}, patterns)
}

func TestParseYAML_InvalidEntries(t *testing.T) {
	_, err := ParseYAML([]byte(`patterns:
  - id: ok
    pattern: fine
  - id: broken
    description: no pattern here
  - id: also-broken
`))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "pattern", verr.Field)
	assert.Equal(t, 1, verr.Entry)
	assert.Contains(t, err.Error(), "entry 1 (broken)")
	assert.Contains(t, err.Error(), "entry 2 (also-broken)")
}

func TestParseYAML_Malformed(t *testing.T) {
	_, err := ParseYAML([]byte("patterns: [unterminated"))
	assert.Error(t, err)
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	yamlPath := writeFile(t, "set.YML", "patterns:\n  - pattern: alpha\n")
	patterns, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, patterns)

	// A line file whose content happens to look like YAML is still read line by line.
	linePath := writeFile(t, "set.txt", "patterns:\n")
	patterns, err = Load(linePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"patterns:"}, patterns)
}

func TestSplitNUL(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want []string
	}{
		{"trailing NUL", []byte("he\x00she\x00"), []string{"he", "she"}},
		{"no trailing NUL", []byte("he\x00she"), []string{"he", "she"}},
		{"empty segments", []byte("\x00\x00he\x00\x00"), []string{"he"}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitNUL(tt.buf))
		})
	}
}

func TestJoinNUL(t *testing.T) {
	patterns := []string{"he", "she", "his", "hers"}
	buf := JoinNUL(patterns)
	assert.Equal(t, []byte("he\x00she\x00his\x00hers\x00"), buf)
	assert.Equal(t, patterns, SplitNUL(buf))
}
