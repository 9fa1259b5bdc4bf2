package domain

import "time"

// TestResult represents the result of executing a test file
type TestResult struct {
	TestPath string        // Path to the test file that was executed
	NodeID   string        // Worker node that ran the test
	Success  bool          // Whether the test passed
	Output   string        // Raw output from PHPUnit
	Error    error         // Error if execution failed
	Duration time.Duration // Time taken to execute
}

// TestResultsMeta contains metadata about a test run
type TestResultsMeta struct {
	TotalTestFiles  int     `json:"total_test_files"`
	FailedTestFiles int     `json:"failed_test_files"`
	PassedTestFiles int     `json:"passed_test_files"`
	FailedTestCases int     `json:"failed_test_cases"`
	CrashedTests    int     `json:"crashed_tests"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// NodeStat is the per-worker breakdown of a run.
type NodeStat struct {
	NodeID    string `json:"node_id"`
	Completed int    `json:"completed"`
	Stolen    int    `json:"stolen"`
}

// TestResultsOutput is the complete output structure for test results
type TestResultsOutput struct {
	Meta    TestResultsMeta `json:"meta"`
	Nodes   []NodeStat      `json:"nodes,omitempty"`
	Crashed []string        `json:"crashed,omitempty"`
	Details []TestFailure   `json:"details"`
}
