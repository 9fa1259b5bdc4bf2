package scheduler

import (
	"strings"
	"testing"
)

func TestCollectionRegistry(t *testing.T) {
	a := &fakeNode{id: "w1"}
	b := &fakeNode{id: "w2"}
	r := newCollectionRegistry(2)

	if r.completed() {
		t.Error("registry should not be completed with no reports")
	}
	r.add(a, []string{"one", "two"})
	if r.completed() {
		t.Error("registry should not be completed with one of two reports")
	}
	r.add(b, []string{"one", "two"})
	if !r.completed() {
		t.Error("registry should be completed with both reports")
	}

	// A repeated report from the same node does not double-count.
	r.add(a, []string{"one", "two"})
	if len(r.order) != 2 {
		t.Errorf("report order has %d entries, want 2", len(r.order))
	}

	first, ref := r.reference()
	if first != Node(a) {
		t.Errorf("reference node = %v, want the first reporter", first)
	}
	if len(ref) != 2 || ref[0] != "one" {
		t.Errorf("reference collection = %v", ref)
	}
}

func TestCollectionDiff(t *testing.T) {
	tests := []struct {
		name string
		want []string
		got  []string
		has  []string // substrings the diff must contain, empty means no diff
	}{
		{
			name: "identical",
			want: []string{"a", "b"},
			got:  []string{"a", "b"},
		},
		{
			name: "different item",
			want: []string{"a", "b"},
			got:  []string{"a", "c"},
			has:  []string{"[1]", `"b"`, `"c"`},
		},
		{
			name: "missing tail",
			want: []string{"a", "b", "c"},
			got:  []string{"a", "b"},
			has:  []string{"length 3 != 2", "[2]"},
		},
		{
			name: "both empty",
			want: nil,
			got:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := collectionDiff(tt.want, tt.got)
			if len(tt.has) == 0 {
				if diff != "" {
					t.Errorf("diff = %q, want empty", diff)
				}
				return
			}
			if diff == "" {
				t.Fatal("expected a non-empty diff")
			}
			for _, sub := range tt.has {
				if !strings.Contains(diff, sub) {
					t.Errorf("diff %q does not contain %q", diff, sub)
				}
			}
		})
	}
}

func TestCollectionDiffTruncates(t *testing.T) {
	want := identifiers(20)
	got := make([]string, 20)
	for i := range got {
		got[i] = "other"
	}
	diff := collectionDiff(want, got)
	if !strings.Contains(diff, "...") {
		t.Errorf("long diff should be truncated, got %q", diff)
	}
}
