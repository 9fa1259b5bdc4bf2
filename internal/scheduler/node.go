package scheduler

// Node is one worker process as seen by the scheduler. The scheduler never
// blocks on a node: every command is fire-and-forget, and acknowledgments
// arrive later as separate calls on the Scheduler (MarkTestComplete,
// RemovePendingTestsFromNode, RemoveNode).
type Node interface {
	// ID identifies the node in logs and reports.
	ID() string

	// SendRunTestSome tells the node to run the given collection indices.
	SendRunTestSome(indices []int)

	// SendSteal asks the node to give back the indices it has not started
	// yet. The node answers through RemovePendingTestsFromNode.
	SendSteal(indices []int)

	// Shutdown tells the node to finish its remaining queue and exit.
	Shutdown()

	// ShuttingDown reports whether Shutdown has been requested.
	ShuttingDown() bool
}
