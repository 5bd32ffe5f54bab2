package cmdutil

import (
	"errors"
	"fmt"

	"github.com/endorses/acscan/internal/pkg/patternset"
	"github.com/spf13/cobra"
)

// ErrNoPatterns is returned when neither a pattern file nor inline patterns were given.
var ErrNoPatterns = errors.New("no patterns given: use --patterns FILE or --pattern TEXT")

// PatternFlags holds the pattern source flags shared by the scanning commands.
type PatternFlags struct {
	File   string
	Inline []string
}

// AddPatternFlags registers --patterns/-p and --pattern on cmd.
func AddPatternFlags(cmd *cobra.Command, f *PatternFlags) {
	cmd.Flags().StringVarP(&f.File, "patterns", "p", "", "pattern file (.yaml/.yml, otherwise one pattern per line)")
	cmd.Flags().StringArrayVar(&f.Inline, "pattern", nil, "pattern text (repeatable)")
}

// PatternFile returns the pattern file from the flag or the patterns.file config key.
func (f *PatternFlags) PatternFile() string {
	return GetStringConfig("patterns.file", f.File)
}

// Load resolves the pattern list: patterns from the file come first, followed
// by inline patterns. Inline patterns fall back to the patterns.inline config key.
func (f *PatternFlags) Load() ([]string, error) {
	var patterns []string

	if path := f.PatternFile(); path != "" {
		loaded, err := patternset.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load patterns from %s: %w", path, err)
		}
		patterns = append(patterns, loaded...)
	}
	patterns = append(patterns, GetStringSliceConfig("patterns.inline", f.Inline)...)

	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	return patterns, nil
}
