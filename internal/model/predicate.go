package model

import "strings"

// matchPattern implements the one substring predicate kind the engine
// currently knows: case-insensitive substring match, with an empty
// pattern meaning "don't constrain". Kept as a free function, rather
// than a method on an interface, so a tagged-variant predicate kind
// can be layered in later (size, attachment presence) without
// breaking this one.
func matchPattern(pattern, field string) bool {
	if pattern == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(pattern))
}
