package nodeflow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrNilContext indicates ExecuteFlow was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilPlan indicates ExecuteFlow was called without a plan.
	ErrNilPlan = errors.New("execution plan cannot be nil")

	// ErrDeadlock indicates unprocessed nodes remain but none can become
	// ready: the graph has a cycle or an edge to a missing node.
	ErrDeadlock = errors.New("flow deadlocked")

	// ErrOutputExists indicates a second write for the same node in one run.
	ErrOutputExists = errors.New("output already recorded")

	// ErrDuplicateNode indicates two nodes in a plan share an id.
	ErrDuplicateNode = errors.New("duplicate node id")
)

// DeadlockError reports the nodes left unexecuted when scheduling stalls.
type DeadlockError struct {
	// Stuck lists the unprocessed node ids in plan order.
	Stuck []string
	// Dangling lists edges whose source or target is not in the plan.
	Dangling []Edge
}

// Error implements the error interface.
func (e *DeadlockError) Error() string {
	msg := fmt.Sprintf("flow deadlocked: %d node(s) can never run: %s",
		len(e.Stuck), strings.Join(e.Stuck, ", "))
	if len(e.Dangling) > 0 {
		refs := make([]string, len(e.Dangling))
		for i, edge := range e.Dangling {
			refs[i] = edge.Source + "->" + edge.Target
		}
		msg += fmt.Sprintf(" (dangling edges: %s)", strings.Join(refs, ", "))
	}
	return msg
}

// Unwrap returns ErrDeadlock for errors.Is support.
func (e *DeadlockError) Unwrap() error {
	return ErrDeadlock
}

// CancellationError reports a run stopped by its context.
type CancellationError struct {
	// Pending lists node ids that had not produced output.
	Pending []string
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("flow cancelled with %d node(s) pending: %v", len(e.Pending), e.Cause)
}

// Unwrap returns the cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// NodeError wraps a handler failure with node context. The executor turns it
// into the node's inline "Error: ..." output; it is never returned from a run.
type NodeError struct {
	NodeID string
	Type   NodeType
	Err    error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised by a handler.
type PanicError struct {
	Value any
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
