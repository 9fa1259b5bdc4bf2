package execution

import "dtp/internal/domain"

// eventKind tags the node-originated events the session loop consumes.
type eventKind int

const (
	// eventCollected carries the test list the node discovered locally.
	eventCollected eventKind = iota
	// eventTestDone carries the result of one finished test item.
	eventTestDone
	// eventStolen answers a steal request with the indices the node gave up.
	eventStolen
	// eventNodeDown is the node's last event: clean exit or crash.
	eventNodeDown
)

// event is one entry of the serialized node-to-session stream. Events from a
// single node arrive in the order the node produced them.
type event struct {
	node       *WorkerNode
	kind       eventKind
	collection []string
	index      int
	result     domain.TestResult
	indices    []int
}

// commandKind tags the fire-and-forget commands a node receives.
type commandKind int

const (
	cmdRunTests commandKind = iota
	cmdSteal
	cmdShutdown
	cmdAbort
)

type command struct {
	kind    commandKind
	indices []int
}
