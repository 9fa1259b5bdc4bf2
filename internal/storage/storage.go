package storage

import (
	"time"

	"dtp/internal/domain"
)

// Storage persists and loads test run results (e.g. for the faills viewer).
type Storage interface {
	Save(results []domain.TestResult, failures []domain.TestFailure, crashed []string,
		nodes []domain.NodeStat, duration time.Duration, workers int) error
	Load() (*domain.TestResultsOutput, error)
	// SaveOutput writes the full output (e.g. after the viewer updates
	// resolved flags).
	SaveOutput(output *domain.TestResultsOutput) error
}
