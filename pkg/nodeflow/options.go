package nodeflow

// runConfig holds per-run settings.
type runConfig struct {
	runID     string
	observers []Observer
}

// RunOption configures one ExecuteFlow call.
type RunOption func(*runConfig)

// WithRunID sets the run id. By default a random UUID is used.
func WithRunID(id string) RunOption {
	return func(c *runConfig) { c.runID = id }
}

// WithObserver adds an observer notified of each node output. Observers are
// called in the order they were added.
func WithObserver(o Observer) RunOption {
	return func(c *runConfig) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithOutputFunc adds a callback notified of each node output.
func WithOutputFunc(fn func(nodeID string, output any)) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.observers = append(c.observers, ObserverFunc(func(_, nodeID string, output any) {
				fn(nodeID, output)
			}))
		}
	}
}
