package nodeflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/config"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/httpclient"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/llm"
)

// Request is everything a handler sees for one node execution.
type Request struct {
	Node   Node
	Inputs Inputs
	// Config wraps Node.Config.
	Config config.Config
	// Plan is the plan being executed. It may be nil when a node is executed
	// outside of a run.
	Plan   *ExecutionPlan
	Logger *slog.Logger
}

// Handler computes the output of one node type. A returned error becomes the
// node's inline "Error: ..." output; it never aborts the run.
type Handler interface {
	Handle(ctx context.Context, req Request) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) (any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req Request) (any, error) {
	return f(ctx, req)
}

// NodeResult is the outcome of executing one node.
type NodeResult struct {
	NodeID string
	// Output is the value stored for the node. On failure it is the inline
	// "Error: ..." string.
	Output any
	// Err is set when the handler failed or panicked.
	Err      *NodeError
	Duration time.Duration
}

// Failed reports whether Output is an inline error.
func (r NodeResult) Failed() bool {
	return r.Err != nil
}

// Executor dispatches nodes to the handler registered for their type.
type Executor struct {
	handlers *HandlerRegistry
	llm      llm.Factory
	http     httpclient.Client
	logger   *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLLMFactory sets how llm-prompt nodes obtain a client.
func WithLLMFactory(f llm.Factory) ExecutorOption {
	return func(e *Executor) {
		if f != nil {
			e.llm = f
		}
	}
}

// WithLLMClient makes every llm-prompt node use c.
func WithLLMClient(c llm.Client) ExecutorOption {
	return WithLLMFactory(llm.Static(c))
}

// WithHTTPClient sets the client used by api-call nodes.
func WithHTTPClient(c httpclient.Client) ExecutorOption {
	return func(e *Executor) {
		if c != nil {
			e.http = c
		}
	}
}

// WithHandler registers h for t, replacing any built-in handler.
func WithHandler(t NodeType, h Handler) ExecutorOption {
	return func(e *Executor) { e.handlers.Register(t, h) }
}

// WithExecutorLogger sets the logger passed to handlers.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor returns an Executor with the built-in node types registered.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		handlers: NewHandlerRegistry(),
		llm:      llm.NewFactory(),
		http:     httpclient.New(),
		logger:   slog.Default(),
	}
	e.registerBuiltins()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) registerBuiltins() {
	e.handlers.Register(TypeTextInput, HandlerFunc(handleTextInput))
	e.handlers.Register(TypeImageInput, HandlerFunc(handleImageInput))
	e.handlers.Register(TypeTextOutput, HandlerFunc(handleTextOutput))
	e.handlers.Register(TypeMarkdownOutput, HandlerFunc(handleTextOutput))
	e.handlers.Register(TypeTextCombiner, HandlerFunc(handleTextCombiner))
	e.handlers.Register(TypeConditional, HandlerFunc(handleConditional))
	e.handlers.Register(TypeLLMPrompt, HandlerFunc(e.handleLLMPrompt))
	e.handlers.Register(TypeAPICall, HandlerFunc(e.handleAPICall))
}

// Handlers returns the registry used for dispatch.
func (e *Executor) Handlers() *HandlerRegistry {
	return e.handlers
}

// Execute runs node with the given inputs. It never returns an error: handler
// failures and panics are turned into an "Error: ..." output and reported in
// NodeResult.Err.
func (e *Executor) Execute(ctx context.Context, node Node, inputs Inputs, plan *ExecutionPlan) NodeResult {
	start := time.Now()
	result := NodeResult{NodeID: node.ID}

	h, ok := e.handlers.Get(node.Type)
	if !ok {
		result.Output = fmt.Sprintf("Unsupported node type: %s", node.Type)
		result.Duration = time.Since(start)
		return result
	}

	out, err := e.invoke(ctx, h, Request{
		Node:   node,
		Inputs: inputs,
		Config: config.New(node.Config),
		Plan:   plan,
		Logger: e.logger.With(slog.String("node_id", node.ID)),
	})
	if err != nil {
		result.Err = &NodeError{NodeID: node.ID, Type: node.Type, Err: err}
		out = ErrorOutput(err)
	}
	result.Output = out
	result.Duration = time.Since(start)
	return result
}

func (e *Executor) invoke(ctx context.Context, h Handler, req Request) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return h.Handle(ctx, req)
}

// ErrorOutput renders err as an inline node output.
func ErrorOutput(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return fmt.Sprintf("Error: %v", pe.Value)
	}
	return "Error: " + err.Error()
}
