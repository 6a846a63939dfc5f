/*
Package nodeflow executes workflow graphs built in a visual editor.

# Overview

A flow is a set of typed nodes joined by directed edges. Each edge carries
the output of its source node to its target node. nodeflow computes every
node's output in dependency order, running independent nodes concurrently,
and reports each output as soon as it is available.

	nodes := []nodeflow.Node{
	    {ID: "in", Type: nodeflow.TypeTextInput, Config: map[string]any{"text": "Hello"}},
	    {ID: "join", Type: nodeflow.TypeTextCombiner, Config: map[string]any{"additionalText": " World"}},
	    {ID: "out", Type: nodeflow.TypeTextOutput},
	}
	edges := []nodeflow.Edge{
	    {ID: "e1", Source: "in", Target: "join"},
	    {ID: "e2", Source: "join", Target: "out"},
	}

	plan := nodeflow.BuildExecutionPlan(nodes, edges)
	outputs, err := nodeflow.ExecuteFlow(ctx, plan, func(id string, out any) {
	    fmt.Println(id, out)
	})

# Node Types

  - text-input, image-input: return their configured value
  - text-output, markdown-output: pass through the first input as text
  - text-combiner: first input followed by "additionalText"
  - llm-prompt: sends the inputs to a language model (see package llm)
  - conditional: tests the first input and routes it to one branch
  - api-call: issues an HTTP request (see package httpclient)

Additional types are added with WithHandler; the scheduler does not need to
know about them.

# Waves

Execution proceeds in waves. A wave is every node whose upstream nodes have
all produced output. The nodes of a wave run concurrently, bounded by
WithMaxConcurrency, and the wave is joined before the next one is resolved.

# Conditional Branches

A conditional node produces a ConditionalResult. Its "true-out" or
"false-out" handle, whichever was selected, delivers the original input to
its targets. The other handle delivers nothing: its targets, and everything
downstream of them, are pruned. They do not run, do not appear in the
outputs, and are listed in RunResult.Pruned.

# Errors

A failing node does not stop the run. Handler errors and panics become the
node's output as a string starting with "Error: ". Only two conditions end a
run early:

  - *DeadlockError (wraps ErrDeadlock): nodes remain but none can become
    ready, because of a cycle or an edge from a missing node
  - *CancellationError: ctx was cancelled; no further wave starts

Both are returned together with the outputs recorded so far.

# Observability

	engine := nodeflow.NewEngine(
	    nodeflow.WithLogger(logger),
	    nodeflow.WithMetrics(true),
	    nodeflow.WithTracing(true),
	)
	res, err := engine.ExecuteFlow(ctx, plan, nodeflow.WithRunID("run-123"))

Spans: nodeflow.run > nodeflow.wave > nodeflow.node.{type}.

# Subpackages

  - config: typed node settings and engine configuration
  - llm: LLM clients (Ollama, OpenAI-compatible, mock)
  - httpclient: HTTP transport for api-call nodes
  - observability: logging, metrics and tracing helpers
  - runlog: history of node outputs per run (memory, SQLite)
  - graphfile: loading flows from JSON or YAML
  - server: HTTP API for executing flows
*/
package nodeflow
