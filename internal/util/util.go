// Package util provides small string helpers shared by the parser and exporters.
package util

import (
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

// CleanArg trims surrounding quotes and unescapes doubled quotes.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// SplitList splits a comma separated list, trimming brackets, quotes and blanks.
// Empty entries are dropped.
func SplitList(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := CleanArg(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseBool accepts true/false and 1/0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(CleanArg(s)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// SafeFileName replaces characters that are awkward in file names with underscores.
func SafeFileName(s string) string {
	r := strings.NewReplacer(" ", "_", ":", "_", "/", "_", `\`, "_")
	out := r.Replace(strings.TrimSpace(s))
	if out == "" {
		return "session"
	}
	return out
}
