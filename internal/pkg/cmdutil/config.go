// Package cmdutil provides shared utilities for CLI command implementations.
package cmdutil

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// GetStringConfig returns the config value for key, or flagValue if the key is not set.
// Flag values take precedence over config file values.
func GetStringConfig(key, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(key)
}

// GetStringSliceConfig returns flagValue when it is non-empty, otherwise the config value for key.
func GetStringSliceConfig(key string, flagValue []string) []string {
	if len(flagValue) > 0 {
		return flagValue
	}
	// Check actual config value instead of viper.IsSet() which returns true
	// for bound flags even when config file doesn't define them
	if configValue := viper.GetStringSlice(key); len(configValue) > 0 {
		return configValue
	}
	return flagValue
}

// GetIntConfig returns the config value for key, or flagValue if the key is not set.
func GetIntConfig(key string, flagValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return flagValue
}

// GetBoolConfig returns flagValue when set, otherwise the config value for key.
func GetBoolConfig(key string, flagValue bool) bool {
	if flagValue {
		return true
	}
	return viper.GetBool(key)
}

// GetSizeConfig resolves a size such as "64K" from flagValue or the config value
// for key, falling back to def when neither is set.
func GetSizeConfig(key, flagValue string, def int) (int, error) {
	s := GetStringConfig(key, flagValue)
	if s == "" {
		return def, nil
	}
	n, err := ParseSizeString(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: size must be positive, got %q", key, s)
	}
	return int(n), nil
}

// ParseSizeString parses a size string (e.g., "100M", "1G", "500K") and returns bytes.
// Supported suffixes: K/k (KiB), M/m (MiB), G/g (GiB), T/t (TiB). A trailing "B"
// after the unit ("64KB") is accepted.
func ParseSizeString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	if len(s) > 1 && (s[len(s)-1] == 'B' || s[len(s)-1] == 'b') {
		switch s[len(s)-2] {
		case 'K', 'k', 'M', 'm', 'G', 'g', 'T', 't':
			s = s[:len(s)-1]
		}
	}

	lastChar := s[len(s)-1]
	var multiplier int64 = 1

	switch lastChar {
	case 'K', 'k':
		multiplier = 1024
		s = s[:len(s)-1]
	case 'M', 'm':
		multiplier = 1024 * 1024
		s = s[:len(s)-1]
	case 'G', 'g':
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	case 'T', 't':
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}

	var value int64
	var rest string
	n, err := fmt.Sscanf(s, "%d%s", &value, &rest)
	if n == 0 {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if rest != "" {
		return 0, fmt.Errorf("invalid size value: trailing %q", rest)
	}

	return value * multiplier, nil
}
