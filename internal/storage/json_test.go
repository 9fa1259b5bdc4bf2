package storage

import (
	"path/filepath"
	"testing"
	"time"

	"dtp/internal/config"
	"dtp/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	return cfg
}

func TestJSONStorage_SaveAndLoad(t *testing.T) {
	cfg := testConfig(t)
	st := NewJSONStorage(cfg)

	results := []domain.TestResult{
		{TestPath: "tests/ATest.php", Success: true},
		{TestPath: "tests/BTest.php", Success: false},
		{TestPath: "tests/CTest.php", Success: false},
	}
	failures := []domain.TestFailure{
		{TestName: "testSomething", FilePath: "tests/BTest.php"},
	}
	crashed := []string{"tests/CTest.php"}
	nodes := []domain.NodeStat{{NodeID: "worker-1", Completed: 3, Stolen: 1}}

	if err := st.Save(results, failures, crashed, nodes, 42*time.Second, 2); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	meta := loaded.Meta
	if meta.TotalTestFiles != 3 || meta.PassedTestFiles != 1 || meta.FailedTestFiles != 2 {
		t.Errorf("meta counts = %+v", meta)
	}
	if meta.CrashedTests != 1 || meta.Workers != 2 {
		t.Errorf("meta = %+v", meta)
	}
	if meta.DurationSeconds != 42 {
		t.Errorf("DurationSeconds = %v, want 42", meta.DurationSeconds)
	}
	if len(loaded.Details) != 1 || loaded.Details[0].TestName != "testSomething" {
		t.Errorf("details = %+v", loaded.Details)
	}
	if len(loaded.Nodes) != 1 || loaded.Nodes[0].Stolen != 1 {
		t.Errorf("nodes = %+v", loaded.Nodes)
	}
	if len(loaded.Crashed) != 1 || loaded.Crashed[0] != crashed[0] {
		t.Errorf("crashed = %v", loaded.Crashed)
	}
}

func TestJSONStorage_SaveOutputRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	st := NewJSONStorage(cfg)

	output := &domain.TestResultsOutput{
		Meta:    domain.TestResultsMeta{TotalTestFiles: 1},
		Details: []domain.TestFailure{{TestName: "testIt", Resolved: true}},
	}
	if err := st.SaveOutput(output); err != nil {
		t.Fatalf("SaveOutput() error: %v", err)
	}
	loaded, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !loaded.Details[0].Resolved {
		t.Error("resolved flag did not survive the round trip")
	}
}

func TestJSONStorage_LoadMissingFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputJSONDir = filepath.Join("storage", "nope")
	if _, err := NewJSONStorage(cfg).Load(); err == nil {
		t.Error("expected an error for a missing results file")
	}
}
