// Package scheduler assigns test items to worker nodes and rebalances them
// while the run is in flight. Work is tracked as indices into a collection of
// test identifiers that all nodes must agree on. When the pending pool runs
// dry and a node is starved, the scheduler steals queued items back from the
// most loaded node and hands them to the starved one.
package scheduler

import (
	"fmt"
	"log/slog"
)

// MinPending is the per-node prefetch depth: one item running plus one queued
// so the worker never has to wait for its next assignment.
const MinPending = 2

// Scheduler owns the pending pool and the per-node queues. It is driven by a
// serialized event stream and is not safe for concurrent use; the caller must
// deliver one event at a time. It never blocks on a node and never waits for
// a reply.
type Scheduler struct {
	log *slog.Logger

	registry *collectionRegistry
	nodes    []Node // registration order, used for deterministic tie-breaks
	queues   map[Node][]int

	// mismatched nodes reported a collection that differs from the agreed
	// one after it was fixed; they never receive work.
	mismatched map[Node]bool

	collection      []string
	collectionFixed bool
	pending         []int

	// stealTarget is the node with an unanswered steal request, nil when no
	// steal is in flight. At most one steal may be outstanding at a time.
	stealTarget Node
}

// New creates a Scheduler that waits for expectedNodes collection reports
// before the run can be scheduled.
func New(expectedNodes int, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		log:        log,
		registry:   newCollectionRegistry(expectedNodes),
		queues:     make(map[Node][]int),
		mismatched: make(map[Node]bool),
	}
}

// Nodes returns the registered nodes in registration order.
func (s *Scheduler) Nodes() []Node {
	return append([]Node(nil), s.nodes...)
}

// Collection returns the agreed test list. It is nil until the first
// successful Schedule call; an empty non-nil slice means an empty collection
// was agreed on.
func (s *Scheduler) Collection() []string {
	if !s.collectionFixed {
		return nil
	}
	out := make([]string, len(s.collection))
	copy(out, s.collection)
	return out
}

// CollectionIsCompleted reports whether every expected node has reported its
// collection, which is the precondition for Schedule.
func (s *Scheduler) CollectionIsCompleted() bool {
	return s.collectionFixed || s.registry.completed()
}

// HasPending reports whether any test is still pending or assigned.
func (s *Scheduler) HasPending() bool {
	if len(s.pending) > 0 {
		return true
	}
	for _, queue := range s.queues {
		if len(queue) > 0 {
			return true
		}
	}
	return false
}

// TestsFinished reports whether the run is done from the scheduler's point of
// view. Up to MinPending-1 items may still be running per node; those are
// guaranteed to finish without further rebalancing.
func (s *Scheduler) TestsFinished() bool {
	if !s.CollectionIsCompleted() {
		return false
	}
	if len(s.pending) > 0 {
		return false
	}
	if s.stealTarget != nil {
		return false
	}
	for _, queue := range s.queues {
		if len(queue) >= MinPending {
			return false
		}
	}
	return true
}

// AddNode registers a brand-new node with an empty queue. No work is assigned
// here; that happens on the next rebalancing pass.
func (s *Scheduler) AddNode(node Node) {
	if _, ok := s.queues[node]; ok {
		panic(fmt.Sprintf("scheduler: node %s already registered", node.ID()))
	}
	s.nodes = append(s.nodes, node)
	s.queues[node] = nil
}

// AddNodeCollection records the test list a node discovered locally. Once the
// collection is fixed, a differing report disqualifies that node from
// receiving work but does not abort the run.
func (s *Scheduler) AddNodeCollection(node Node, collection []string) {
	if _, ok := s.queues[node]; !ok {
		panic(fmt.Sprintf("scheduler: collection from unknown node %s", node.ID()))
	}
	if s.collectionFixed {
		if !equalCollections(s.collection, collection) {
			s.log.Error("node collected different tests, it will not receive work",
				"node", node.ID(),
				"diff", collectionDiff(s.collection, collection))
			s.mismatched[node] = true
		}
		return
	}
	s.registry.add(node, collection)
}

// Schedule transitions from collecting to running: it validates that all
// nodes collected the same tests, fixes the collection, fills the pending
// pool and distributes it. If the collection was already fixed this is a
// plain rebalancing pass, which lets nodes join mid-run.
func (s *Scheduler) Schedule() {
	if !s.CollectionIsCompleted() {
		panic("scheduler: Schedule called before all nodes reported their collections")
	}
	if s.collectionFixed {
		s.checkSchedule()
		return
	}
	if !s.validateCollections() {
		// Mismatch across nodes is unrecoverable for the run; nothing is
		// distributed and the collection stays unset.
		return
	}
	_, reference := s.registry.reference()
	s.collection = append([]string(nil), reference...)
	s.collectionFixed = true
	s.pending = make([]int, len(s.collection))
	for i := range s.pending {
		s.pending[i] = i
	}
	if len(s.collection) == 0 {
		return
	}
	s.checkSchedule()
}

// validateCollections compares every reported collection against the first
// reporter's. Every differing node is logged.
func (s *Scheduler) validateCollections() bool {
	first, reference := s.registry.reference()
	ok := true
	for _, node := range s.registry.order {
		diff := collectionDiff(reference, s.registry.reported[node])
		if diff == "" {
			continue
		}
		ok = false
		s.log.Error("different tests collected, aborting run",
			"node", node.ID(),
			"reference", first.ID(),
			"diff", diff)
	}
	return ok
}

// MarkTestComplete removes a finished item from the node's queue and
// rebalances. The item must currently be assigned to that node.
func (s *Scheduler) MarkTestComplete(node Node, itemIndex int) {
	queue := s.queues[node]
	for i, idx := range queue {
		if idx == itemIndex {
			s.queues[node] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	s.checkSchedule()
}

// MarkTestPending re-queues a test for another run. The item jumps the line:
// it is inserted at the front of the pending pool.
func (s *Scheduler) MarkTestPending(item string) {
	index := -1
	for i, name := range s.collection {
		if name == item {
			index = i
			break
		}
	}
	if index < 0 {
		panic(fmt.Sprintf("scheduler: cannot requeue %q, not in collection", item))
	}
	s.pending = append([]int{index}, s.pending...)
	s.checkSchedule()
}

// RemovePendingTestsFromNode is the donor's answer to a steal request. Only
// indices still present in the donor's queue re-enter the pending pool; the
// donor may have finished some of them since the request was sent. The
// in-flight steal slot clears regardless.
func (s *Scheduler) RemovePendingTestsFromNode(node Node, indices []int) {
	if s.stealTarget != node {
		panic(fmt.Sprintf("scheduler: steal answer from %s, expected pending steal target", node.ID()))
	}
	s.stealTarget = nil

	requested := make(map[int]bool, len(indices))
	for _, idx := range indices {
		requested[idx] = true
	}
	var kept, stolen []int
	for _, idx := range s.queues[node] {
		if requested[idx] {
			stolen = append(stolen, idx)
		} else {
			kept = append(kept, idx)
		}
	}
	s.queues[node] = kept
	s.pending = append(s.pending, stolen...)
	s.checkSchedule()
}

// RemoveNode forgets a node that shut down or crashed. If the node still had
// work queued, the first queued item is the one that was executing when the
// node died; it is returned for reporting and not re-run. The rest of the
// queue is recycled into the pending pool.
func (s *Scheduler) RemoveNode(node Node) (crashItem string, crashed bool) {
	queue, ok := s.queues[node]
	if !ok {
		return "", false
	}
	delete(s.queues, node)
	delete(s.mismatched, node)
	for i, n := range s.nodes {
		if n == node {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			break
		}
	}
	if s.stealTarget == node {
		// The steal will never be answered.
		s.stealTarget = nil
	}
	if len(queue) == 0 {
		return "", false
	}
	crashItem = s.collection[queue[0]]
	s.pending = append(s.pending, queue[1:]...)
	s.checkSchedule()
	return crashItem, true
}

// checkSchedule is the rebalancing pass run after every state change. It
// distributes pending work to starved nodes, initiates at most one steal when
// the pool is dry, and shuts starved nodes down when no node has surplus to
// donate.
func (s *Scheduler) checkSchedule() {
	var nodesUp []Node
	for _, node := range s.nodes {
		if !node.ShuttingDown() && !s.mismatched[node] {
			nodesUp = append(nodesUp, node)
		}
	}

	idleNodes := s.idleNodes(nodesUp)
	if len(idleNodes) == 0 {
		return
	}

	if len(s.pending) > 0 {
		// Split the pool evenly across the idle nodes, recomputing the
		// divisor each step so rounding leftovers spread across nodes.
		for i, node := range idleNodes {
			s.sendTests(node, len(s.pending)/(len(idleNodes)-i))
		}
		idleNodes = s.idleNodes(nodesUp)
		if len(idleNodes) == 0 {
			return
		}
	}

	if s.stealTarget != nil {
		// A steal is already in flight; wait for its answer.
		return
	}

	var stealFrom Node
	for _, node := range nodesUp {
		if stealFrom == nil || len(s.queues[node]) > len(s.queues[stealFrom]) {
			stealFrom = node
		}
	}

	numSteal := 0
	if stealFrom != nil {
		// Never drain the donor below its own prefetch depth, and take at
		// most half its queue.
		maxSteal := max(0, len(s.queues[stealFrom])-MinPending)
		numSteal = min(len(s.queues[stealFrom])/2, maxSteal)
	}

	if numSteal == 0 {
		// No node has surplus to donate: the run is winding down. Shutting
		// an idle node down makes it run its last queued item immediately
		// instead of waiting for work that will never come.
		for _, node := range idleNodes {
			node.Shutdown()
		}
		return
	}

	queue := s.queues[stealFrom]
	stealTests := append([]int(nil), queue[len(queue)-numSteal:]...)
	s.stealTarget = stealFrom
	stealFrom.SendSteal(stealTests)
}

// idleNodes returns the nodes whose queue is below the prefetch depth.
func (s *Scheduler) idleNodes(nodesUp []Node) []Node {
	var idle []Node
	for _, node := range nodesUp {
		if len(s.queues[node]) < MinPending {
			idle = append(idle, node)
		}
	}
	return idle
}

// sendTests moves up to num items from the front of the pending pool to the
// node's queue and tells the node to run them.
func (s *Scheduler) sendTests(node Node, num int) {
	if num > len(s.pending) {
		num = len(s.pending)
	}
	if num <= 0 {
		return
	}
	batch := append([]int(nil), s.pending[:num]...)
	s.pending = s.pending[num:]
	s.queues[node] = append(s.queues[node], batch...)
	node.SendRunTestSome(batch)
}
