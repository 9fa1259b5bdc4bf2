package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dtp/internal/config"
	"dtp/internal/discovery"
	"dtp/internal/domain"
	"dtp/internal/execution"
	"dtp/internal/migration"
	"dtp/internal/parser"
	"dtp/internal/storage"
	"dtp/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	session   *execution.Session
	parser    *parser.PHPUnitParser
	storage   storage.Storage
	formatter *ui.Formatter
	migrator  migration.Migrator
	viewer    *ui.ErrorViewer
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	session *execution.Session,
	phpunitParser *parser.PHPUnitParser,
	st storage.Storage,
	formatter *ui.Formatter,
	migrator migration.Migrator,
	viewer *ui.ErrorViewer,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		session:   session,
		parser:    phpunitParser,
		storage:   st,
		formatter: formatter,
		migrator:  migrator,
		viewer:    viewer,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	rc.config.LoadEnv()

	if rc.config.Flags.Migrate {
		if err := rc.migrator.Run(rc.config.Processors, rc.config.Flags.NoFresh); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println()
	}

	tests, err := rc.scanner.Scan(rc.config.GetTestPath())
	if err != nil {
		return err
	}
	tests = rc.filter.FilterByName(tests, rc.config.Flags.NameFilter)

	if rc.config.Flags.OnlyFailed {
		tests, err = rc.keepPreviouslyFailed(tests)
		if err != nil {
			return err
		}
	}

	if len(tests) == 0 {
		color.Yellow("No tests to execute")
		return nil
	}

	progress := ui.NewProgressBar(len(tests))
	rc.session.SetProgress(progress)

	report, err := rc.session.Run(tests)
	if err != nil {
		return err
	}

	var failures []domain.TestFailure
	for _, result := range report.Results {
		if !result.Success {
			failures = append(failures, rc.parser.ParseFailures(result)...)
		}
	}

	if err := rc.storage.Save(report.Results, failures, report.Crashed,
		report.Nodes, report.Duration, rc.config.Processors); err != nil {
		return fmt.Errorf("save test results: %w", err)
	}

	output, err := rc.storage.Load()
	if err != nil {
		return err
	}
	rc.formatter.PrintSummary(output)

	if rc.config.Flags.OpenFaills && len(output.Details) > 0 {
		return rc.viewer.View(output)
	}
	return nil
}

// keepPreviouslyFailed narrows the discovered tests to the files that failed
// or crashed in the last saved run.
func (rc *RunCommand) keepPreviouslyFailed(tests []string) ([]string, error) {
	previous, err := rc.storage.Load()
	if err != nil {
		return nil, fmt.Errorf("no previous run to take failures from: %w", err)
	}

	failedKeys := make(map[string]struct{})
	for _, failure := range previous.Details {
		failedKeys[ui.NormalizePathKey(rc.config.ProjectPath, failure.FilePath)] = struct{}{}
	}
	for _, crashed := range previous.Crashed {
		failedKeys[ui.NormalizePathKey(rc.config.ProjectPath, crashed)] = struct{}{}
	}

	var kept []string
	for _, test := range tests {
		if _, ok := failedKeys[ui.NormalizePathKey(rc.config.ProjectPath, test)]; ok {
			kept = append(kept, test)
		}
	}
	return kept, nil
}
