package scheduler

import (
	"fmt"
	"strings"
)

// collectionRegistry tracks, per node, the test list each node reported after
// running its local collection phase. The first reporter's list becomes the
// reference every other report is validated against.
type collectionRegistry struct {
	expected int
	reported map[Node][]string
	order    []Node // report order
}

func newCollectionRegistry(expected int) *collectionRegistry {
	return &collectionRegistry{
		expected: expected,
		reported: make(map[Node][]string),
	}
}

// add stores a node's reported collection.
func (r *collectionRegistry) add(node Node, collection []string) {
	if _, ok := r.reported[node]; !ok {
		r.order = append(r.order, node)
	}
	r.reported[node] = append([]string(nil), collection...)
}

// completed reports whether every expected node has reported.
func (r *collectionRegistry) completed() bool {
	return len(r.reported) >= r.expected
}

// reference returns the first reporter and its collection.
func (r *collectionRegistry) reference() (Node, []string) {
	if len(r.order) == 0 {
		return nil, nil
	}
	first := r.order[0]
	return first, r.reported[first]
}

// collectionDiff renders the positional differences between two collections.
// Returns "" when they are identical.
func collectionDiff(want, got []string) string {
	if equalCollections(want, got) {
		return ""
	}
	var b strings.Builder
	if len(want) != len(got) {
		fmt.Fprintf(&b, "length %d != %d; ", len(want), len(got))
	}
	shown := 0
	for i := 0; i < len(want) || i < len(got); i++ {
		var w, g string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			g = got[i]
		}
		if w == g {
			continue
		}
		if shown == 5 {
			b.WriteString("...")
			break
		}
		fmt.Fprintf(&b, "[%d]: %q != %q; ", i, w, g)
		shown++
	}
	return strings.TrimSuffix(b.String(), "; ")
}

func equalCollections(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
