package migration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"dtp/internal/config"
	"dtp/internal/domain"
)

// LaravelMigrator migrates every worker database in parallel with
// `php artisan migrate:fresh` (or `migrate` when noFresh is set).
type LaravelMigrator struct {
	config          *config.Config
	databaseManager *DatabaseManager
}

// NewLaravelMigrator creates a new LaravelMigrator
func NewLaravelMigrator(cfg *config.Config, dbManager *DatabaseManager) *LaravelMigrator {
	return &LaravelMigrator{config: cfg, databaseManager: dbManager}
}

// Run provisions and migrates the databases for all workers.
func (lm *LaravelMigrator) Run(workerCount int, noFresh bool) error {
	color.Cyan("\nPreparing test databases\n")

	workers, err := lm.databaseManager.EnsureDatabases(workerCount)
	if err != nil {
		return fmt.Errorf("check databases: %w", err)
	}
	if len(workers) == 0 {
		return fmt.Errorf("no test databases available")
	}

	bar := progressbar.NewOptions(len(workers),
		progressbar.OptionSetDescription(color.CyanString("Migrating")),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)

	start := time.Now()
	results := make(chan domain.MigrationResult, len(workers))
	var wg sync.WaitGroup
	for _, workerID := range workers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			results <- lm.migrateWorker(id, noFresh)
			bar.Add(1)
		}(workerID)
	}
	wg.Wait()
	close(results)
	bar.Finish()

	var failed []domain.MigrationResult
	for result := range results {
		if !result.Success {
			failed = append(failed, result)
		}
	}

	fmt.Print("\n")
	if len(failed) > 0 {
		color.Red("✗ Migration failed for %d worker(s)\n", len(failed))
		for _, result := range failed {
			color.Red("  worker %d (%s): %v\n", result.WorkerID, result.Database, result.Error)
		}
		return fmt.Errorf("migration failed for %d worker(s)", len(failed))
	}
	color.Green("✓ Migrated %d databases in %s\n", len(workers), time.Since(start).Round(time.Millisecond))
	return nil
}

func (lm *LaravelMigrator) migrateWorker(workerID int, noFresh bool) domain.MigrationResult {
	database := lm.config.GetDatabaseName(workerID)
	result := domain.MigrationResult{WorkerID: workerID, Database: database}

	projectPath, err := filepath.Abs(lm.config.ProjectPath)
	if err != nil {
		result.Error = fmt.Errorf("resolve project path: %w", err)
		return result
	}

	command := "migrate:fresh"
	if noFresh {
		command = "migrate"
	}

	cmd := exec.Command("php", filepath.Join(projectPath, "artisan"), command, "--env=testing", "--force")
	cmd.Dir = projectPath
	cmd.Env = append(os.Environ(), "DB_DATABASE="+database)

	output, err := cmd.CombinedOutput()
	result.Output = string(output)
	result.Success = err == nil
	result.Error = err
	return result
}
