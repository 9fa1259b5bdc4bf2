package discovery

import (
	"fmt"
	"os"
	"regexp"
	"sort"
)

var (
	testMethodPattern = regexp.MustCompile(`(?m)^\s*(?:(?:final|abstract|public|protected|private|static)\s+)*function\s+(test\w+)\s*\(`)
	annotatedPattern  = regexp.MustCompile(`(?s)/\*\*(?:[^*]|\*[^/])*?@test.*?\*/\s*(?:(?:final|public|protected|private|static)\s+)*function\s+(\w+)\s*\(`)
)

// Parser extracts test case names from PHPUnit test files.
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// FindTestCases returns the sorted test method names in a file: methods named
// test* plus methods carrying an @test docblock annotation.
func (p *Parser) FindTestCases(filePath string) ([]string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}

	seen := make(map[string]bool)
	for _, match := range testMethodPattern.FindAllStringSubmatch(string(content), -1) {
		seen[match[1]] = true
	}
	for _, match := range annotatedPattern.FindAllStringSubmatch(string(content), -1) {
		seen[match[1]] = true
	}

	cases := make([]string, 0, len(seen))
	for name := range seen {
		cases = append(cases, name)
	}
	sort.Strings(cases)
	return cases, nil
}
