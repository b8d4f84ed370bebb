// Package util provides helpers for intent arguments.
package util

import "strings"

// Unquote trims whitespace and one pair of surrounding double quotes, then
// collapses doubled quotes ("") inside the value.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `""`, `"`)
}

// SplitKeyValue splits "key=value" into its parts. ok is false when there is
// no separator or the key is empty.
func SplitKeyValue(s string) (key, value string, ok bool) {
	key, value, found := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	return key, Unquote(value), true
}
