package execution

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"dtp/internal/config"
	"dtp/internal/domain"
	"dtp/internal/parser"
	"dtp/internal/scheduler"
	"dtp/internal/ui"
)

// RunReport is the outcome of one parallel test run.
type RunReport struct {
	Results  []domain.TestResult
	Crashed  []string // tests that were executing when their worker died
	Nodes    []domain.NodeStat
	Duration time.Duration
}

// Session drives one test run: it starts the worker nodes, feeds their events
// into the work-stealing scheduler one at a time, and gathers results until
// every node has exited.
type Session struct {
	config   *config.Config
	runner   TestRunner
	parser   *parser.PHPUnitParser
	progress *ui.ProgressBar
	log      *slog.Logger
}

// NewSession creates a new Session
func NewSession(cfg *config.Config, runner TestRunner, phpunitParser *parser.PHPUnitParser, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		config: cfg,
		runner: runner,
		parser: phpunitParser,
		log:    log,
	}
}

// SetProgress sets the progress bar for the run
func (s *Session) SetProgress(progress *ui.ProgressBar) {
	s.progress = progress
}

// Run executes the given tests across the configured number of worker nodes.
func (s *Session) Run(tests []string) (*RunReport, error) {
	if len(tests) == 0 {
		return &RunReport{}, nil
	}

	workerCount := s.config.Processors
	if workerCount <= 0 {
		workerCount = 1
	}

	events := make(chan event, workerCount*4)
	sched := scheduler.New(workerCount, s.log)

	nodes := make([]*WorkerNode, 0, workerCount)
	stats := make(map[*WorkerNode]*domain.NodeStat, workerCount)
	for i := 1; i <= workerCount; i++ {
		node := newWorkerNode(i, s.runner, tests, events)
		sched.AddNode(node)
		nodes = append(nodes, node)
		stats[node] = &domain.NodeStat{NodeID: node.ID()}
	}
	for _, node := range nodes {
		node.Start()
	}

	stopAll := func() {
		for _, node := range nodes {
			node.abort()
		}
	}

	start := time.Now()
	var (
		results     []domain.TestResult
		crashed     []string
		aborted     bool
		stopping    bool
		completed   int
		passedCases int
		failedCases int
	)

	for alive := len(nodes); alive > 0; {
		ev := <-events
		switch ev.kind {
		case eventCollected:
			sched.AddNodeCollection(ev.node, ev.collection)
			if !sched.CollectionIsCompleted() {
				continue
			}
			sched.Schedule()
			if sched.Collection() == nil {
				// Nodes disagree on what to run; nothing was distributed.
				aborted = true
				stopping = true
				stopAll()
			}

		case eventTestDone:
			sched.MarkTestComplete(ev.node, ev.index)
			results = append(results, ev.result)
			stats[ev.node].Completed++
			completed++
			s.countCases(ev.result, &passedCases, &failedCases)
			s.updateProgress(completed, passedCases, failedCases)
			if s.config.Flags.FailFast && !ev.result.Success && !stopping {
				stopping = true
				stopAll()
			}

		case eventStolen:
			sched.RemovePendingTestsFromNode(ev.node, ev.indices)
			stats[ev.node].Stolen += len(ev.indices)

		case eventNodeDown:
			alive--
			item, isCrash := sched.RemoveNode(ev.node)
			if isCrash && !stopping {
				crashed = append(crashed, item)
				s.log.Error("worker died while running a test",
					"node", ev.node.ID(), "test", item)
				results = append(results, domain.TestResult{
					TestPath: item,
					NodeID:   ev.node.ID(),
					Success:  false,
					Output:   "worker crashed while running this test",
				})
				completed++
				failedCases++
				s.updateProgress(completed, passedCases, failedCases)
			}
		}
	}

	if s.progress != nil {
		s.progress.Finish()
	}
	if aborted {
		return nil, fmt.Errorf("workers collected different tests, run aborted")
	}

	report := &RunReport{
		Results:  results,
		Crashed:  crashed,
		Duration: time.Since(start),
	}
	for _, node := range nodes {
		report.Nodes = append(report.Nodes, *stats[node])
	}
	sort.Slice(report.Nodes, func(i, j int) bool {
		return report.Nodes[i].NodeID < report.Nodes[j].NodeID
	})
	return report, nil
}

// countCases folds one result into the running pass/fail case counters.
func (s *Session) countCases(result domain.TestResult, passed, failed *int) {
	if s.parser != nil {
		p, f := s.parser.ParseTestCounts(result)
		*passed += p
		*failed += f
		return
	}
	if result.Success {
		*passed++
	} else {
		*failed++
	}
}

func (s *Session) updateProgress(completed, passed, failed int) {
	if s.progress != nil {
		s.progress.Update(completed, passed, failed)
	}
}
