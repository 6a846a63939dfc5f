package nodeflow

// Observer receives node outputs as soon as each node finishes. Calls for one
// run are serialised, so implementations need no locking of their own.
type Observer interface {
	OnNodeOutput(runID, nodeID string, output any)
}

// PruneObserver is implemented by observers that also want to know about
// nodes skipped on an untaken conditional branch.
type PruneObserver interface {
	OnNodePruned(runID, nodeID string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(runID, nodeID string, output any)

// OnNodeOutput implements Observer.
func (f ObserverFunc) OnNodeOutput(runID, nodeID string, output any) {
	f(runID, nodeID, output)
}
