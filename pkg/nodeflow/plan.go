package nodeflow

import (
	"maps"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/config"
)

// PlanConfig holds run-wide defaults resolved when a plan is built.
type PlanConfig struct {
	// OllamaURL is the LLM service base URL used by llm-prompt nodes that do
	// not set their own.
	OllamaURL string `json:"ollamaUrl"`
}

// ExecutionPlan is an immutable snapshot of a flow ready to execute.
type ExecutionPlan struct {
	Nodes  []Node
	Edges  []Edge
	Config PlanConfig
}

// Node returns the node with the given id.
func (p *ExecutionPlan) Node(id string) (Node, bool) {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

type planConfig struct {
	defaultOllamaURL string
}

// PlanOption configures BuildExecutionPlan.
type PlanOption func(*planConfig)

// WithDefaultOllamaURL replaces the built-in LLM base URL default. An llm-prompt
// node carrying its own URL still takes precedence. Empty values are ignored.
func WithDefaultOllamaURL(url string) PlanOption {
	return func(c *planConfig) {
		if url != "" {
			c.defaultOllamaURL = url
		}
	}
}

// BuildExecutionPlan snapshots nodes and edges into a plan. It never fails.
//
// The first llm-prompt node with a non-empty "ollamaUrl" setting provides the
// plan-wide LLM base URL. Edges without a source handle are assigned
// DefaultHandle.
func BuildExecutionPlan(nodes []Node, edges []Edge, opts ...PlanOption) *ExecutionPlan {
	cfg := planConfig{defaultOllamaURL: config.DefaultOllamaURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	plan := &ExecutionPlan{
		Nodes:  make([]Node, len(nodes)),
		Edges:  make([]Edge, len(edges)),
		Config: PlanConfig{OllamaURL: cfg.defaultOllamaURL},
	}

	for i, n := range nodes {
		n.Config = maps.Clone(n.Config)
		plan.Nodes[i] = n
	}
	for i, e := range edges {
		if e.SourceHandle == "" {
			e.SourceHandle = DefaultHandle
		}
		plan.Edges[i] = e
	}

	for _, n := range plan.Nodes {
		if n.Type != TypeLLMPrompt {
			continue
		}
		if url := config.New(n.Config).NonEmptyString("ollamaUrl", ""); url != "" {
			plan.Config.OllamaURL = url
			break
		}
	}

	return plan
}
