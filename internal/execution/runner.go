package execution

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"dtp/internal/config"
	"dtp/internal/domain"
)

// TestRunner executes a single test file on behalf of a worker node.
type TestRunner interface {
	Run(testPath string, workerID int) domain.TestResult
}

// Runner executes a single PHPUnit test file
type Runner struct {
	config *config.Config
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{config: cfg}
}

// Run executes PHPUnit for a single test file. Each worker gets its own test
// database so runs cannot trample each other's fixtures.
func (r *Runner) Run(testPath string, workerID int) domain.TestResult {
	phpunitPath := r.config.GetPHPUnitPath()
	cmd := exec.CommandContext(context.Background(), phpunitPath, testPath)

	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, fmt.Sprintf("DB_DATABASE=%s", r.config.GetDatabaseName(workerID)))
	cmd.Dir = r.config.ProjectPath

	start := time.Now()
	output, err := cmd.CombinedOutput()

	return domain.TestResult{
		TestPath: testPath,
		Success:  err == nil,
		Output:   string(output),
		Error:    err,
		Duration: time.Since(start),
	}
}
