package nodeflow

// ResolveReady returns the unprocessed nodes whose every incoming edge comes
// from a processed node. Nodes without incoming edges are always ready.
// The result keeps the order of unprocessed.
func ResolveReady(unprocessed []Node, processed map[string]bool, edges []Edge) []Node {
	ready, _ := newResolver(nil, edges).frontier(unprocessed, processed, nil, nil)
	return ready
}

// resolver holds the connection indexes of one plan.
type resolver struct {
	// incoming maps target id to its incoming edges in plan order.
	incoming map[string][]Edge
	// outgoing maps source id and handle to the target ids fed by it.
	outgoing map[string]map[string][]string
	known    map[string]bool
}

func newResolver(nodes []Node, edges []Edge) *resolver {
	r := &resolver{
		incoming: make(map[string][]Edge),
		outgoing: make(map[string]map[string][]string),
		known:    make(map[string]bool, len(nodes)),
	}
	for _, n := range nodes {
		r.known[n.ID] = true
	}
	for _, e := range edges {
		r.incoming[e.Target] = append(r.incoming[e.Target], e)
		byHandle, ok := r.outgoing[e.Source]
		if !ok {
			byHandle = make(map[string][]string)
			r.outgoing[e.Source] = byHandle
		}
		byHandle[e.SourceHandle] = append(byHandle[e.SourceHandle], e.Target)
	}
	return r
}

// targets returns the node ids fed by the given output handle of source.
func (r *resolver) targets(source, handle string) []string {
	return r.outgoing[source][handle]
}

// blockedSet records conditional output handles that deliver nothing this
// run, keyed by source node id then handle.
type blockedSet map[string]map[string]bool

func (b blockedSet) block(source, handle string) {
	if b[source] == nil {
		b[source] = make(map[string]bool)
	}
	b[source][handle] = true
}

func (b blockedSet) has(source, handle string) bool {
	return b[source][handle]
}

// frontier splits the unprocessed nodes into those ready to run and those
// newly found dead. A node is dead when an incoming edge is blocked or its
// source is dead; dead is updated in place. Dead nodes never become ready.
func (r *resolver) frontier(unprocessed []Node, processed map[string]bool, blocked blockedSet, dead map[string]bool) (ready, newlyDead []Node) {
	if dead == nil {
		dead = make(map[string]bool)
	}

	for changed := true; changed; {
		changed = false
		for _, n := range unprocessed {
			if dead[n.ID] {
				continue
			}
			for _, e := range r.incoming[n.ID] {
				if dead[e.Source] || (processed[e.Source] && blocked.has(e.Source, e.SourceHandle)) {
					dead[n.ID] = true
					newlyDead = append(newlyDead, n)
					changed = true
					break
				}
			}
		}
	}

	for _, n := range unprocessed {
		if dead[n.ID] {
			continue
		}
		if r.satisfied(n.ID, processed) {
			ready = append(ready, n)
		}
	}
	return ready, newlyDead
}

func (r *resolver) satisfied(nodeID string, processed map[string]bool) bool {
	for _, e := range r.incoming[nodeID] {
		if !processed[e.Source] {
			return false
		}
	}
	return true
}

// dangling returns edges whose source or target is not a plan node.
func (r *resolver) dangling(edges []Edge) []Edge {
	var out []Edge
	for _, e := range edges {
		if !r.known[e.Source] || !r.known[e.Target] {
			out = append(out, e)
		}
	}
	return out
}
