package parser

import (
	"testing"

	"dtp/internal/domain"
)

const failingOutput = `PHPUnit 10.5.20 by Sebastian Bergmann and contributors.

.F.E                                                                4 / 4 (100%)

Time: 00:00.128, Memory: 24.00 MB

There were 2 failures:

1) Tests\Feature\OrderTest::testTotalIncludesTax
Failed asserting that 100 matches expected 112.

/var/www/tests/Feature/OrderTest.php:42
/var/www/vendor/phpunit/phpunit/src/Framework/TestCase.php:1120

2) Tests\Feature\OrderTest::testEmptyCartIsRejected
RuntimeException: cart is empty

/var/www/tests/Feature/OrderTest.php:58

FAILURES!
Tests: 4, Assertions: 9, Failures: 1, Errors: 1.
`

func TestParseTestCounts(t *testing.T) {
	p := NewPHPUnitParser()

	tests := []struct {
		name       string
		result     domain.TestResult
		wantPassed int
		wantFailed int
	}{
		{
			name:       "all passing",
			result:     domain.TestResult{Success: true, Output: "OK (7 tests, 21 assertions)"},
			wantPassed: 7,
			wantFailed: 0,
		},
		{
			name:       "failures and errors",
			result:     domain.TestResult{Success: false, Output: failingOutput},
			wantPassed: 2,
			wantFailed: 2,
		},
		{
			name:       "single test OK",
			result:     domain.TestResult{Success: true, Output: "OK (1 test, 3 assertions)"},
			wantPassed: 1,
			wantFailed: 0,
		},
		{
			name:       "unparseable success falls back to file level",
			result:     domain.TestResult{Success: true, Output: "garbage"},
			wantPassed: 1,
			wantFailed: 0,
		},
		{
			name:       "unparseable failure falls back to file level",
			result:     domain.TestResult{Success: false, Output: "segmentation fault"},
			wantPassed: 0,
			wantFailed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, failed := p.ParseTestCounts(tt.result)
			if passed != tt.wantPassed || failed != tt.wantFailed {
				t.Errorf("ParseTestCounts() = (%d, %d), want (%d, %d)",
					passed, failed, tt.wantPassed, tt.wantFailed)
			}
		})
	}
}

func TestParseFailures(t *testing.T) {
	p := NewPHPUnitParser()
	result := domain.TestResult{
		TestPath: "tests/Feature/OrderTest.php",
		Success:  false,
		Output:   failingOutput,
	}

	failures := p.ParseFailures(result)
	if len(failures) != 2 {
		t.Fatalf("found %d failures, want 2", len(failures))
	}

	first := failures[0]
	if first.TestName != "testTotalIncludesTax" {
		t.Errorf("TestName = %q", first.TestName)
	}
	if first.FilePath != result.TestPath {
		t.Errorf("FilePath = %q", first.FilePath)
	}
	if first.Message != "Failed asserting that 100 matches expected 112." {
		t.Errorf("Message = %q", first.Message)
	}
	if first.File != "/var/www/tests/Feature/OrderTest.php" || first.Line != 42 {
		t.Errorf("location = %s:%d", first.File, first.Line)
	}
	if len(first.StackTrace) != 2 {
		t.Errorf("stack trace = %v", first.StackTrace)
	}

	second := failures[1]
	if second.TestName != "testEmptyCartIsRejected" {
		t.Errorf("TestName = %q", second.TestName)
	}
	if second.Message != "RuntimeException: cart is empty" {
		t.Errorf("Message = %q", second.Message)
	}
}

func TestParseFailuresOnPassingOutput(t *testing.T) {
	p := NewPHPUnitParser()
	failures := p.ParseFailures(domain.TestResult{Success: true, Output: "OK (3 tests, 9 assertions)"})
	if len(failures) != 0 {
		t.Errorf("failures = %v, want none", failures)
	}
}
