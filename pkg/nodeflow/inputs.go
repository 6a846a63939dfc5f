package nodeflow

// Input is one value delivered to a node along an incoming edge.
type Input struct {
	SourceID     string
	SourceHandle string
	TargetHandle string
	Value        any
}

// Inputs are the values delivered to a node, in edge order.
type Inputs []Input

// First returns the value of the first delivered input.
func (in Inputs) First() (any, bool) {
	if len(in) == 0 {
		return nil, false
	}
	return in[0].Value, true
}

// Values returns every delivered value in edge order.
func (in Inputs) Values() []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v.Value
	}
	return out
}

// BySource returns the delivered values keyed by upstream node id. When two
// edges share a source, the first one wins.
func (in Inputs) BySource() map[string]any {
	out := make(map[string]any, len(in))
	for _, v := range in {
		if _, ok := out[v.SourceID]; !ok {
			out[v.SourceID] = v.Value
		}
	}
	return out
}

// ByHandle returns the first value delivered to the given target handle.
func (in Inputs) ByHandle(handle string) (any, bool) {
	for _, v := range in {
		if v.TargetHandle == handle {
			return v.Value, true
		}
	}
	return nil, false
}
