package execution

import (
	"fmt"
	"sync/atomic"
)

// WorkerNode is one worker seen by the scheduler. Commands arrive over a
// buffered channel so the scheduler never blocks; the node's goroutine runs
// its queued items strictly in order and reports everything back as events.
type WorkerNode struct {
	id         string
	workerID   int
	runner     TestRunner
	collection []string

	events       chan<- event
	commands     chan command
	shuttingDown atomic.Bool
}

func newWorkerNode(workerID int, runner TestRunner, collection []string, events chan<- event) *WorkerNode {
	return &WorkerNode{
		id:         fmt.Sprintf("worker-%d", workerID),
		workerID:   workerID,
		runner:     runner,
		collection: collection,
		events:     events,
		// Sized so every batch, steal and shutdown the controller can ever
		// send fits without blocking it.
		commands: make(chan command, 2*len(collection)+8),
	}
}

// ID identifies the node in logs and reports.
func (n *WorkerNode) ID() string { return n.id }

// SendRunTestSome queues collection indices for the node to run.
func (n *WorkerNode) SendRunTestSome(indices []int) {
	n.commands <- command{kind: cmdRunTests, indices: append([]int(nil), indices...)}
}

// SendSteal asks the node to give back the indices it has not started yet.
func (n *WorkerNode) SendSteal(indices []int) {
	n.commands <- command{kind: cmdSteal, indices: append([]int(nil), indices...)}
}

// Shutdown tells the node to finish its remaining queue and exit.
func (n *WorkerNode) Shutdown() {
	if n.shuttingDown.Swap(true) {
		return
	}
	n.commands <- command{kind: cmdShutdown}
}

// ShuttingDown reports whether Shutdown has been requested.
func (n *WorkerNode) ShuttingDown() bool { return n.shuttingDown.Load() }

// abort tells the node to drop its remaining queue and exit without running
// it. Used when the run stops early (fail-fast, collection mismatch).
func (n *WorkerNode) abort() {
	n.shuttingDown.Store(true)
	n.commands <- command{kind: cmdAbort}
}

// Start launches the node's goroutine. The node first reports its collection,
// then works off commands until it is shut down.
func (n *WorkerNode) Start() {
	go n.loop()
}

func (n *WorkerNode) loop() {
	defer func() {
		// A panicking runner counts as a node crash: the controller finds
		// out through the node-down event and recycles the lost queue.
		recover()
		n.events <- event{node: n, kind: eventNodeDown}
	}()

	n.events <- event{node: n, kind: eventCollected, collection: n.collection}

	var todo []int
	shutdown := false
	for {
		for len(todo) == 0 && !shutdown {
			todo, shutdown = n.apply(<-n.commands, todo, shutdown)
		}
		// Drain commands that arrived while the previous item ran, so steal
		// requests act before the next item starts.
		for drained := false; !drained; {
			select {
			case cmd := <-n.commands:
				todo, shutdown = n.apply(cmd, todo, shutdown)
			default:
				drained = true
			}
		}
		if len(todo) == 0 {
			if shutdown {
				return
			}
			continue
		}

		index := todo[0]
		todo = todo[1:]
		result := n.runner.Run(n.collection[index], n.workerID)
		result.NodeID = n.id
		n.events <- event{node: n, kind: eventTestDone, index: index, result: result}
	}
}

// apply handles one command against the node's local queue.
func (n *WorkerNode) apply(cmd command, todo []int, shutdown bool) ([]int, bool) {
	switch cmd.kind {
	case cmdRunTests:
		todo = append(todo, cmd.indices...)
	case cmdSteal:
		requested := make(map[int]bool, len(cmd.indices))
		for _, idx := range cmd.indices {
			requested[idx] = true
		}
		var kept, given []int
		for _, idx := range todo {
			if requested[idx] {
				given = append(given, idx)
			} else {
				kept = append(kept, idx)
			}
		}
		todo = kept
		// Always answer, even with nothing to give, so the controller's
		// steal slot frees up.
		n.events <- event{node: n, kind: eventStolen, indices: given}
	case cmdShutdown:
		shutdown = true
	case cmdAbort:
		todo = nil
		shutdown = true
	}
	return todo, shutdown
}
