// Package parser extracts case counts and failure details from raw PHPUnit
// output.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"dtp/internal/domain"
)

// PHPUnitParser parses PHPUnit test output
type PHPUnitParser struct{}

// NewPHPUnitParser creates a new PHPUnitParser
func NewPHPUnitParser() *PHPUnitParser {
	return &PHPUnitParser{}
}

var (
	okPattern       = regexp.MustCompile(`OK \((\d+) tests?`)
	testsPattern    = regexp.MustCompile(`Tests: (\d+)`)
	failuresPattern = regexp.MustCompile(`Failures: (\d+)`)
	errorsPattern   = regexp.MustCompile(`Errors: (\d+)`)
	// Failure blocks start with "N) Fully\Qualified\ClassTest::testMethod".
	failureHeadPattern = regexp.MustCompile(`^\d+\) (\S+)::(\S+)`)
	traceLinePattern   = regexp.MustCompile(`^(/\S+\.php):(\d+)$`)
)

// ParseTestCounts extracts passed and failed test case counts from PHPUnit
// output. When the summary line cannot be found it falls back to counting the
// whole file as one case.
func (p *PHPUnitParser) ParseTestCounts(result domain.TestResult) (passed, failed int) {
	output := result.Output

	if m := okPattern.FindStringSubmatch(output); m != nil {
		total, _ := strconv.Atoi(m[1])
		return total, 0
	}

	var total, failures, errors int
	if m := testsPattern.FindStringSubmatch(output); m != nil {
		total, _ = strconv.Atoi(m[1])
	}
	if m := failuresPattern.FindStringSubmatch(output); m != nil {
		failures, _ = strconv.Atoi(m[1])
	}
	if m := errorsPattern.FindStringSubmatch(output); m != nil {
		errors, _ = strconv.Atoi(m[1])
	}
	failed = failures + errors
	if total >= failed {
		passed = total - failed
	}
	if passed > 0 || failed > 0 {
		return passed, failed
	}

	if result.Success {
		return 1, 0
	}
	return 0, 1
}

// ParseFailures extracts one TestFailure per failed case from PHPUnit output.
func (p *PHPUnitParser) ParseFailures(result domain.TestResult) []domain.TestFailure {
	var failures []domain.TestFailure
	lines := strings.Split(result.Output, "\n")

	for i := 0; i < len(lines); i++ {
		head := failureHeadPattern.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if head == nil {
			continue
		}
		failure := domain.TestFailure{
			TestName: head[2],
			FilePath: result.TestPath,
		}

		var message []string
		j := i + 1
		for ; j < len(lines); j++ {
			line := strings.TrimSpace(lines[j])
			if failureHeadPattern.MatchString(line) {
				break
			}
			if trace := traceLinePattern.FindStringSubmatch(line); trace != nil {
				failure.StackTrace = append(failure.StackTrace, line)
				if failure.File == "" && strings.Contains(line, "tests/") {
					failure.File = trace[1]
					failure.Line, _ = strconv.Atoi(trace[2])
				}
				continue
			}
			if len(failure.StackTrace) == 0 {
				message = append(message, lines[j])
			}
		}
		i = j - 1

		for len(message) > 0 && strings.TrimSpace(message[len(message)-1]) == "" {
			message = message[:len(message)-1]
		}
		for len(message) > 0 && strings.TrimSpace(message[0]) == "" {
			message = message[1:]
		}
		failure.Message = strings.Join(message, "\n")
		failures = append(failures, failure)
	}

	return failures
}
