package migration

// Migrator prepares the per-worker test databases before a run.
type Migrator interface {
	Run(workerCount int, noFresh bool) error
}
