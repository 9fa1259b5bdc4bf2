package execution

import (
	"sync"
	"testing"
	"time"

	"dtp/internal/domain"
)

// gateRunner blocks each Run call until the gate is fed, so tests control
// exactly when the worker is mid-test.
type gateRunner struct {
	gate chan struct{}
	mu   sync.Mutex
	ran  []string
}

func (r *gateRunner) Run(testPath string, workerID int) domain.TestResult {
	<-r.gate
	r.mu.Lock()
	r.ran = append(r.ran, testPath)
	r.mu.Unlock()
	return domain.TestResult{TestPath: testPath, Success: true}
}

func (r *gateRunner) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func nextEvent(t *testing.T, events <-chan event) event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a node event")
		return event{}
	}
}

func TestWorkerNode_ReportsCollectionFirst(t *testing.T) {
	events := make(chan event, 32)
	runner := &gateRunner{gate: make(chan struct{}, 8)}
	collection := []string{"tests/ATest.php", "tests/BTest.php"}

	node := newWorkerNode(1, runner, collection, events)
	node.Start()

	ev := nextEvent(t, events)
	if ev.kind != eventCollected {
		t.Fatalf("first event kind = %d, want collected", ev.kind)
	}
	if len(ev.collection) != 2 || ev.collection[0] != collection[0] {
		t.Errorf("reported collection = %v", ev.collection)
	}

	node.Shutdown()
	if ev := nextEvent(t, events); ev.kind != eventNodeDown {
		t.Errorf("expected node-down after shutdown, got kind %d", ev.kind)
	}
}

func TestWorkerNode_StealTakesOnlyUnstartedItems(t *testing.T) {
	events := make(chan event, 32)
	runner := &gateRunner{gate: make(chan struct{}, 8)}
	collection := []string{"tests/ATest.php", "tests/BTest.php", "tests/CTest.php"}

	node := newWorkerNode(1, runner, collection, events)
	node.Start()
	nextEvent(t, events) // collected

	node.SendRunTestSome([]int{0, 1, 2})
	node.SendSteal([]int{1, 2})
	runner.gate <- struct{}{} // let the current item finish

	var done, stolen int
	var stolenIndices []int
	for i := 0; i < 2; i++ {
		switch ev := nextEvent(t, events); ev.kind {
		case eventTestDone:
			done++
			if ev.index != 0 {
				t.Errorf("finished index = %d, want 0", ev.index)
			}
		case eventStolen:
			stolen++
			stolenIndices = ev.indices
		default:
			t.Fatalf("unexpected event kind %d", ev.kind)
		}
	}
	if done != 1 || stolen != 1 {
		t.Fatalf("events seen: %d done, %d stolen; want 1 of each", done, stolen)
	}
	if len(stolenIndices) != 2 || stolenIndices[0] != 1 || stolenIndices[1] != 2 {
		t.Errorf("stolen indices = %v, want [1 2]", stolenIndices)
	}
	if got := runner.paths(); len(got) != 1 {
		t.Errorf("ran %v, want only the first item", got)
	}

	node.Shutdown()
	if ev := nextEvent(t, events); ev.kind != eventNodeDown {
		t.Errorf("expected node-down, got kind %d", ev.kind)
	}
}

func TestWorkerNode_StealAnswersEvenWhenEmpty(t *testing.T) {
	events := make(chan event, 32)
	runner := &gateRunner{gate: make(chan struct{}, 8)}

	node := newWorkerNode(1, runner, []string{"tests/ATest.php"}, events)
	node.Start()
	nextEvent(t, events) // collected

	node.SendSteal([]int{0})
	ev := nextEvent(t, events)
	if ev.kind != eventStolen {
		t.Fatalf("event kind = %d, want stolen", ev.kind)
	}
	if len(ev.indices) != 0 {
		t.Errorf("stolen indices = %v, want none", ev.indices)
	}

	node.Shutdown()
	nextEvent(t, events)
}

func TestWorkerNode_ShutdownDrainsQueue(t *testing.T) {
	events := make(chan event, 32)
	runner := &gateRunner{gate: make(chan struct{}, 8)}
	collection := []string{"tests/ATest.php", "tests/BTest.php"}

	node := newWorkerNode(1, runner, collection, events)
	node.Start()
	nextEvent(t, events) // collected

	node.SendRunTestSome([]int{0, 1})
	node.Shutdown()
	if !node.ShuttingDown() {
		t.Error("ShuttingDown should report true once requested")
	}
	runner.gate <- struct{}{}
	runner.gate <- struct{}{}

	kinds := []eventKind{}
	for i := 0; i < 3; i++ {
		kinds = append(kinds, nextEvent(t, events).kind)
	}
	want := []eventKind{eventTestDone, eventTestDone, eventNodeDown}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event sequence = %v, want %v", kinds, want)
		}
	}
	if got := runner.paths(); len(got) != 2 {
		t.Errorf("ran %v, want both queued items before exiting", got)
	}
}

func TestWorkerNode_AbortDropsQueue(t *testing.T) {
	events := make(chan event, 32)
	runner := &gateRunner{gate: make(chan struct{}, 8)}
	collection := []string{"tests/ATest.php", "tests/BTest.php", "tests/CTest.php"}

	node := newWorkerNode(1, runner, collection, events)
	node.Start()
	nextEvent(t, events) // collected

	node.SendRunTestSome([]int{0, 1, 2})
	node.abort()
	runner.gate <- struct{}{} // the in-flight item still finishes

	sawDown := false
	done := 0
	for !sawDown {
		switch ev := nextEvent(t, events); ev.kind {
		case eventTestDone:
			done++
		case eventNodeDown:
			sawDown = true
		}
	}
	if done > 1 {
		t.Errorf("%d items ran after abort, want at most the in-flight one", done)
	}
}
