// Package util provides helpers for cleaning arguments passed in by the host.
package util

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg undoes the host's string quoting: outer quotes are stripped and
// doubled inner quotes collapsed.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(s))
}

// DecodeArg cleans a host argument and unmarshals it as JSON into v.
func DecodeArg(arg string, v any) error {
	s := strings.TrimSpace(CleanArg(arg))
	if s == "" {
		return fmt.Errorf("empty argument")
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("invalid JSON argument: %w", err)
	}
	return nil
}
