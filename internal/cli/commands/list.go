package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dtp/internal/config"
	"dtp/internal/discovery"
	"dtp/internal/storage"
	"dtp/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	formatter *ui.Formatter
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	formatter *ui.Formatter,
	st storage.Storage,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		formatter: formatter,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	tests, err := lc.scanner.Scan(lc.config.GetTestPath())
	if err != nil {
		return err
	}
	tests = lc.filter.FilterByName(tests, lc.config.Flags.NameFilter)

	if len(tests) == 0 {
		color.Yellow("No tests found")
		return nil
	}

	return lc.formatter.PrintTestList(tests, lc.config.Flags.TestCases, lc.lastRunFailures())
}

// lastRunFailures marks files that failed in the last saved run. No saved run
// is fine; the list just loses its [F] markers.
func (lc *ListCommand) lastRunFailures() map[string]struct{} {
	previous, err := lc.storage.Load()
	if err != nil {
		return nil
	}
	failed := make(map[string]struct{})
	for _, failure := range previous.Details {
		failed[ui.NormalizePathKey(lc.config.ProjectPath, failure.FilePath)] = struct{}{}
	}
	for _, crashed := range previous.Crashed {
		failed[ui.NormalizePathKey(lc.config.ProjectPath, crashed)] = struct{}{}
	}
	return failed
}
