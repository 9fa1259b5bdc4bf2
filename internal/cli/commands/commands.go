package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dtp/internal/cli"
	"dtp/internal/config"
	"dtp/internal/discovery"
	"dtp/internal/execution"
	"dtp/internal/migration"
	"dtp/internal/parser"
	"dtp/internal/storage"
	"dtp/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Run     *RunCommand
	List    *ListCommand
	Migrate *MigrateCommand
	Faills  *FaillsCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	scanner := discovery.NewScanner(cfg.PathsToIgnore)
	filter := discovery.NewFilter()
	testCaseParser := discovery.NewParser()
	phpunitParser := parser.NewPHPUnitParser()
	runner := execution.NewRunner(cfg)
	session := execution.NewSession(cfg, runner, phpunitParser, log)
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg, testCaseParser)
	dbManager := migration.NewDatabaseManager(cfg)
	migrator := migration.NewLaravelMigrator(cfg, dbManager)
	errorViewer := ui.NewErrorViewer(jsonStorage)

	return &Commands{
		Run:     NewRunCommand(cfg, scanner, filter, session, phpunitParser, jsonStorage, formatter, migrator, errorViewer),
		List:    NewListCommand(cfg, scanner, filter, formatter, jsonStorage),
		Migrate: NewMigrateCommand(cfg, migrator),
		Faills:  NewFaillsCommand(jsonStorage, errorViewer),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	applyFlags := func(cmd *cobra.Command, args []string) error {
		cfg.Flags = flags.ToConfigFlags()
		if flags.Processors > 0 {
			cfg.Processors = flags.Processors
		}
		return nil
	}

	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Run PHPUnit tests in parallel",
		Long:    "Discover PHPUnit tests and execute them on parallel worker nodes with work stealing",
		RunE:    c.Run.Execute,
		PreRunE: applyFlags,
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", config.DefaultProcessors, "Number of worker nodes to start")
	runCmd.Flags().BoolVarP(&flags.Migrate, "migrate", "m", false, "Run migrations before executing tests")
	runCmd.Flags().BoolVar(&flags.NoFresh, "no-fresh", false, "Run migrations without fresh (only pending migrations)")
	runCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test detection should start")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g. '*UserTest.php' or '*Payment*')")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop assigning new tests after the first failure")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only tests that failed in the last run")
	runCmd.Flags().BoolVar(&flags.OpenFaills, "open-faills", false, "Open the faills viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered tests",
		Long:    "Scan and list all PHPUnit tests without executing them",
		RunE:    c.List.Execute,
		PreRunE: applyFlags,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards)")
	listCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test detection should start")
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "List test cases inside each test file")
	rootCmd.AddCommand(listCmd)

	migrateCmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Run database migrations for all test databases",
		Long:    "Provision and migrate the per-worker test databases in parallel",
		RunE:    c.Migrate.Execute,
		PreRunE: applyFlags,
	}
	migrateCmd.Flags().IntVarP(&flags.Processors, "processors", "p", config.DefaultProcessors, "Number of worker databases to prepare")
	migrateCmd.Flags().BoolVar(&flags.NoFresh, "no-fresh", false, "Run migrations without fresh (only pending migrations)")
	rootCmd.AddCommand(migrateCmd)

	faillsCmd := &cobra.Command{
		Use:   "faills",
		Short: "View test failures interactively",
		Long:  "Display test failures from the last test run in an interactive viewer",
		RunE:  c.Faills.Execute,
	}
	rootCmd.AddCommand(faillsCmd)
}
