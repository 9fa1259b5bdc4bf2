package parser

import "dtp/internal/domain"

// Parser extracts case counts and failure details from raw PHPUnit output.
type Parser interface {
	ParseTestCounts(result domain.TestResult) (passed, failed int)
	ParseFailures(result domain.TestResult) []domain.TestFailure
}
