package ui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"dtp/internal/config"
	"dtp/internal/discovery"
	"dtp/internal/domain"
)

// Formatter renders run summaries and test lists to the terminal.
type Formatter struct {
	config *config.Config
	parser *discovery.Parser
}

// NewFormatter creates a new Formatter
func NewFormatter(cfg *config.Config, parser *discovery.Parser) *Formatter {
	return &Formatter{config: cfg, parser: parser}
}

// PrintSummary renders the stats table, per-worker breakdown and the failed
// tests tree for one run's output.
func (f *Formatter) PrintSummary(output *domain.TestResultsOutput) {
	meta := output.Meta

	fmt.Print("\n")
	color.Cyan("Test Run Summary")
	fmt.Println(strings.Repeat("─", 46))
	printRow("Total test files", color.WhiteString("%d", meta.TotalTestFiles))
	printRow("Passed test files", color.GreenString("%d", meta.PassedTestFiles))
	printRow("Failed test files", color.RedString("%d", meta.FailedTestFiles))
	printRow("Failed test cases", color.RedString("%d", meta.FailedTestCases))
	if meta.CrashedTests > 0 {
		printRow("Crashed tests", color.RedString("%d", meta.CrashedTests))
	}
	printRow("Duration", color.WhiteString("%.2fs", meta.DurationSeconds))
	printRow("Workers", color.WhiteString("%d", meta.Workers))
	fmt.Println(strings.Repeat("─", 46))

	if len(output.Nodes) > 0 {
		fmt.Println()
		color.Cyan("Per-worker breakdown")
		for _, node := range output.Nodes {
			line := fmt.Sprintf("  %-12s completed %3d", node.NodeID, node.Completed)
			if node.Stolen > 0 {
				line += color.YellowString("  (gave up %d stolen)", node.Stolen)
			}
			fmt.Println(line)
		}
	}

	if len(output.Crashed) > 0 {
		fmt.Println()
		color.Red("✗ Workers crashed while running:")
		for _, test := range output.Crashed {
			color.Red("  %s", f.relPath(test))
		}
	}

	fmt.Println()
	if meta.FailedTestFiles == 0 {
		color.Green("✓ All tests passed!")
		return
	}
	color.Red("✗ %d test file(s) failed with %d test case failure(s)", meta.FailedTestFiles, meta.FailedTestCases)
	fmt.Println()
	f.printFailedTests(output.Details)
}

func printRow(label, value string) {
	fmt.Printf("  %-24s %s\n", label, value)
}

// printFailedTests groups failures by file and lists the failed cases under
// each file, sorted for stable output.
func (f *Formatter) printFailedTests(failures []domain.TestFailure) {
	byFile := make(map[string][]domain.TestFailure)
	for _, failure := range failures {
		byFile[failure.FilePath] = append(byFile[failure.FilePath], failure)
	}

	files := make([]string, 0, len(byFile))
	for path := range byFile {
		files = append(files, path)
	}
	sort.Strings(files)

	for _, path := range files {
		color.Yellow("%s", f.relPath(path))
		for _, failure := range byFile[path] {
			color.Red("  ✗ %s", failure.TestName)
			if failure.File != "" && failure.Line > 0 {
				fmt.Printf("    %s\n", color.HiBlackString("%s:%d", failure.File, failure.Line))
			}
		}
	}
}

// CountTestCases returns the total number of test cases across the given test files.
func (f *Formatter) CountTestCases(tests []string) (int, error) {
	var total int
	for _, test := range tests {
		cases, err := f.parser.FindTestCases(test)
		if err != nil {
			return 0, err
		}
		total += len(cases)
	}
	return total, nil
}

// PrintTestList prints the discovered test files, optionally expanding the
// test cases inside each file. Files present in failedPaths are marked [F].
func (f *Formatter) PrintTestList(tests []string, showTestCases bool, failedPaths map[string]struct{}) error {
	color.Green("Found %d test file(s):\n", len(tests))

	for i, test := range tests {
		connector := "├──"
		if i == len(tests)-1 {
			connector = "└──"
		}
		marker := ""
		if _, ok := failedPaths[NormalizePathKey(f.config.ProjectPath, test)]; ok {
			marker = " " + color.RedString("[F]")
		}
		color.Cyan("%s %s%s", connector, f.relPath(test), marker)

		if !showTestCases {
			continue
		}
		childPrefix := "│   "
		if i == len(tests)-1 {
			childPrefix = "    "
		}
		cases, err := f.parser.FindTestCases(test)
		if err != nil {
			color.Red("%s└── (unreadable: %v)", childPrefix, err)
			continue
		}
		if len(cases) == 0 {
			fmt.Printf("%s└── %s\n", childPrefix, color.RedString("(no test cases found)"))
			continue
		}
		for j, testCase := range cases {
			caseConnector := "├──"
			if j == len(cases)-1 {
				caseConnector = "└──"
			}
			fmt.Printf("%s%s %s\n", childPrefix, caseConnector, color.YellowString(testCase))
		}
	}
	return nil
}

func (f *Formatter) relPath(path string) string {
	if rel, err := filepath.Rel(f.config.ProjectPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// NormalizePathKey maps a test file path to a stable key for matching runs
// against discovery: project-relative, slash-separated, lower-cased, without
// the .php suffix.
func NormalizePathKey(projectPath, path string) string {
	p := path
	if projectPath != "" {
		if rel, err := filepath.Rel(projectPath, path); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	p = filepath.ToSlash(p)
	p = strings.TrimSuffix(p, ".php")
	return strings.ToLower(p)
}
