package domain

// MigrationResult represents the outcome of migrating one worker database.
type MigrationResult struct {
	WorkerID int
	Database string
	Success  bool
	Output   string
	Error    error
}
