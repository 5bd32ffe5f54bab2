// Package patternset loads pattern lists for the acscan automaton from line
// files, YAML files and NUL-separated buffers, and watches pattern files for
// changes.
package patternset

import "fmt"

// Config represents the YAML structure of a pattern file.
type Config struct {
	Patterns []*Entry `yaml:"patterns" json:"patterns"`
}

// Entry represents one pattern in YAML/JSON format.
type Entry struct {
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Enabled     *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// IsEnabled reports whether the entry is in use. Entries without an enabled
// field are enabled.
func (e *Entry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// ValidationError represents an invalid pattern file entry
type ValidationError struct {
	Entry   int
	ID      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("entry %d (%s): %s: %s", e.Entry, e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("entry %d: %s: %s", e.Entry, e.Field, e.Message)
}

// Validate checks an entry decoded from a pattern file.
func (e *Entry) Validate(index int) error {
	if e.Pattern == "" {
		return &ValidationError{Entry: index, ID: e.ID, Field: "pattern", Message: "pattern is required"}
	}
	return nil
}
