package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string
	TestPath    string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings: number of worker nodes to start
	Processors int

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Command flags
	Flags Flags
}

// Flags holds command-line flags
type Flags struct {
	Processors int
	Migrate    bool
	NoFresh    bool
	TestPath   string
	NameFilter string
	TestCases  bool
	FailFast   bool
	OnlyFailed bool
	OpenFaills bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		TestPath:       DefaultTestPath,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		Flags:          Flags{Processors: DefaultProcessors},
	}
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load creates a config and applies flags
func Load(flags Flags) *Config {
	cfg := New()
	cfg.Flags = flags
	if flags.Processors > 0 {
		cfg.Processors = flags.Processors
	}
	return cfg
}

// LoadEnv loads the project's .env file into the process environment. A
// missing file is fine; explicit environment variables win either way.
func (c *Config) LoadEnv() {
	_ = godotenv.Load(filepath.Join(c.ProjectPath, ".env"))
}

// GetTestPath returns the test path, using the flag if provided
func (c *Config) GetTestPath() string {
	if c.Flags.TestPath != "" {
		if filepath.IsAbs(c.Flags.TestPath) {
			return c.Flags.TestPath
		}
		return filepath.Join(c.ProjectPath, c.Flags.TestPath)
	}
	return filepath.Join(c.ProjectPath, c.TestPath)
}

// GetOutputPath returns the absolute path to the results JSON file so run and
// faills always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetPHPUnitPath returns the path to the PHPUnit binary
func (c *Config) GetPHPUnitPath() string {
	return filepath.Join(c.ProjectPath, "vendor", "bin", "phpunit")
}

// GetDatabaseName returns the test database name for a worker node
func (c *Config) GetDatabaseName(workerID int) string {
	prefix := os.Getenv("DB_DATABASE_PREFIX")
	if prefix == "" {
		prefix = DefaultDatabasePrefix
	}
	return fmt.Sprintf("%s_%d", prefix, workerID)
}
