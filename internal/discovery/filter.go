package discovery

import (
	"path/filepath"
	"strings"
)

// Filter narrows a test file list by a name pattern.
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName keeps the tests whose base name matches the pattern. Patterns
// may use * and ? wildcards ("*PaymentTest.php"); a pattern without wildcards
// is a substring match.
func (f *Filter) FilterByName(tests []string, pattern string) []string {
	if pattern == "" {
		return tests
	}

	var filtered []string
	for _, test := range tests {
		if matchName(filepath.Base(test), pattern) {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

func matchName(name, pattern string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(name, pattern)
	}
	if ok, err := filepath.Match(pattern, name); err == nil && ok {
		return true
	}
	// filepath.Match is anchored; fall back to checking that the literal
	// pieces of the pattern appear in order, so "*Payment*" works as people
	// expect.
	rest := name
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
	}
	return true
}
