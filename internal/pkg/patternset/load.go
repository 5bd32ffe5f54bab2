package patternset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadLines loads patterns from a file, one per line.
// Empty lines and lines starting with # are ignored; surrounding whitespace is trimmed.
func LoadLines(filename string) ([]string, error) {
	// #nosec G304 -- Path is from configuration or command line
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern file: %w", err)
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	return patterns, nil
}

// LoadYAML reads a YAML pattern file and returns the enabled patterns in file order.
func LoadYAML(path string) ([]string, error) {
	// #nosec G304 -- Path is from configuration or command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML pattern document. Every invalid entry is reported
// in the returned error.
func ParseYAML(data []byte) ([]string, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse pattern YAML: %w", err)
	}

	var (
		patterns []string
		errs     []error
	)
	for i, entry := range config.Patterns {
		if entry == nil {
			errs = append(errs, &ValidationError{Entry: i, Field: "pattern", Message: "empty entry"})
			continue
		}
		if err := entry.Validate(i); err != nil {
			errs = append(errs, err)
			continue
		}
		if !entry.IsEnabled() {
			continue
		}
		patterns = append(patterns, entry.Pattern)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return patterns, nil
}

// Load reads a pattern file, choosing the format by extension:
// .yaml and .yml are YAML pattern files, anything else is one pattern per line.
func Load(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return LoadLines(path)
	}
}

// SplitNUL splits a buffer of NUL-separated patterns. Empty segments are skipped,
// so a trailing NUL is optional.
func SplitNUL(buf []byte) []string {
	var patterns []string
	for _, segment := range bytes.Split(buf, []byte{0}) {
		if len(segment) == 0 {
			continue
		}
		patterns = append(patterns, string(segment))
	}
	return patterns
}

// JoinNUL encodes patterns as a NUL-separated buffer with a trailing NUL.
func JoinNUL(patterns []string) []byte {
	size := 0
	for _, p := range patterns {
		size += len(p) + 1
	}
	buf := make([]byte, 0, size)
	for _, p := range patterns {
		buf = append(buf, p...)
		buf = append(buf, 0)
	}
	return buf
}
