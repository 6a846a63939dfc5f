package nodeflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveReady(t *testing.T) {
	a, b, c, d := textInput("a", ""), textInput("b", ""), textOutput("c"), textOutput("d")
	edges := []Edge{edge("a", "c"), edge("b", "c"), edge("c", "d")}

	tests := []struct {
		name        string
		unprocessed []Node
		processed   map[string]bool
		edges       []Edge
		want        []string
	}{
		{
			name:        "roots are ready first",
			unprocessed: []Node{a, b, c, d},
			processed:   map[string]bool{},
			want:        []string{"a", "b"},
		},
		{
			name:        "waits for every source",
			unprocessed: []Node{b, c, d},
			processed:   map[string]bool{"a": true},
			want:        []string{"b"},
		},
		{
			name:        "ready once all sources processed",
			unprocessed: []Node{c, d},
			processed:   map[string]bool{"a": true, "b": true},
			want:        []string{"c"},
		},
		{
			name:        "nothing left",
			unprocessed: nil,
			processed:   map[string]bool{"a": true},
			want:        []string{},
		},
		{
			name:        "cycle yields empty ready set",
			unprocessed: []Node{textOutput("x"), textOutput("y")},
			processed:   map[string]bool{},
			edges:       []Edge{edge("x", "y"), edge("y", "x")},
			want:        []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.edges
			if e == nil {
				e = edges
			}
			got := ResolveReady(tt.unprocessed, tt.processed, e)
			assert.Equal(t, tt.want, nodeIDs(got))
		})
	}
}

func TestResolveReady_DanglingSourceNeverReady(t *testing.T) {
	got := ResolveReady([]Node{textOutput("b")}, map[string]bool{}, []Edge{edge("ghost", "b")})
	assert.Empty(t, got)
}

func TestResolver_FrontierPrunesBlockedBranches(t *testing.T) {
	nodes := []Node{
		conditional("c", "x"),
		textOutput("yes"),
		textOutput("no"),
		textOutput("after-no"),
		textOutput("mixed"),
	}
	edges := []Edge{
		handleEdge("c", TrueHandle, "yes"),
		handleEdge("c", FalseHandle, "no"),
		edge("no", "after-no"),
		edge("yes", "mixed"),
		edge("no", "mixed"),
	}
	r := newResolver(nodes, edges)

	blocked := make(blockedSet)
	blocked.block("c", FalseHandle)
	dead := map[string]bool{}
	processed := map[string]bool{"c": true}

	ready, newlyDead := r.frontier(nodes[1:], processed, blocked, dead)

	assert.Equal(t, []string{"yes"}, nodeIDs(ready))
	assert.ElementsMatch(t, []string{"no", "after-no", "mixed"}, nodeIDs(newlyDead))
	assert.True(t, dead["after-no"])

	// Already dead nodes are not reported twice.
	_, again := r.frontier(nodes[1:], processed, blocked, dead)
	assert.Empty(t, again)
}

func TestResolver_BlockedBeforeSourceProcessedIsIgnored(t *testing.T) {
	nodes := []Node{conditional("c", "x"), textOutput("no")}
	r := newResolver(nodes, []Edge{handleEdge("c", FalseHandle, "no")})

	blocked := make(blockedSet)
	blocked.block("c", FalseHandle)

	ready, dead := r.frontier(nodes, map[string]bool{}, blocked, nil)
	assert.Equal(t, []string{"c"}, nodeIDs(ready))
	assert.Empty(t, dead)
}

func TestResolver_Dangling(t *testing.T) {
	nodes := []Node{textInput("a", ""), textOutput("b")}
	edges := []Edge{edge("a", "b"), edge("ghost", "b"), edge("a", "nowhere")}
	r := newResolver(nodes, edges)

	got := r.dangling(edges)
	assert.Equal(t, []Edge{edge("ghost", "b"), edge("a", "nowhere")}, got)
	assert.Equal(t, []string{"b", "nowhere"}, r.targets("a", ""))
}
