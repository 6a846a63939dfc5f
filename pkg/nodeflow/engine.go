package nodeflow

import (
	"log/slog"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/config"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/httpclient"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/llm"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/observability"
)

// DefaultMaxConcurrency bounds how many nodes of one wave run at once.
const DefaultMaxConcurrency = 8

// Engine executes plans. An Engine holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	executor       *Executor
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	maxConcurrency int
	ollamaURL      string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger enables run, wave and node logging.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics enables OpenTelemetry metrics through the global meter provider.
func WithMetrics(enabled bool) EngineOption {
	return func(e *Engine) {
		if enabled {
			e.metrics = observability.NewMetricsRecorder()
		} else {
			e.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans through the global tracer provider.
func WithTracing(enabled bool) EngineOption {
	return func(e *Engine) {
		if enabled {
			e.spans = observability.NewSpanManager()
		} else {
			e.spans = observability.NoopSpanManager{}
		}
	}
}

// WithMetricsRecorder sets the metrics recorder directly, for example one
// bound to a non-global meter provider.
func WithMetricsRecorder(m observability.MetricsRecorder) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithSpanManager sets the span manager directly.
func WithSpanManager(sm observability.SpanManager) EngineOption {
	return func(e *Engine) {
		if sm != nil {
			e.spans = sm
		}
	}
}

// WithMaxConcurrency bounds how many nodes of one wave run at once.
// Values below 1 are ignored.
func WithMaxConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// WithExecutor replaces the node executor.
func WithExecutor(ex *Executor) EngineOption {
	return func(e *Engine) {
		if ex != nil {
			e.executor = ex
		}
	}
}

// WithOllamaURL sets the LLM base URL used by BuildPlan.
func WithOllamaURL(url string) EngineOption {
	return func(e *Engine) {
		if url != "" {
			e.ollamaURL = url
		}
	}
}

// NewEngine creates an Engine. Without options it logs nothing, records no
// telemetry and uses an executor with the built-in node types.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
		maxConcurrency: DefaultMaxConcurrency,
		ollamaURL:      config.DefaultOllamaURL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.executor == nil {
		var exOpts []ExecutorOption
		if e.logger != nil {
			exOpts = append(exOpts, WithExecutorLogger(e.logger))
		}
		e.executor = NewExecutor(exOpts...)
	}
	return e
}

// NewEngineFromConfig creates an Engine whose LLM and HTTP collaborators
// follow cfg. A nil logger disables engine logging; collaborators then log to
// slog.Default(). opts are applied last.
func NewEngineFromConfig(cfg config.Engine, logger *slog.Logger, opts ...EngineOption) *Engine {
	collabLogger := logger
	if collabLogger == nil {
		collabLogger = slog.Default()
	}

	ex := NewExecutor(
		WithLLMFactory(llm.NewFactory(
			llm.WithDefaultProvider(cfg.LLMProvider),
			llm.WithAPIKey(cfg.OpenAIAPIKey),
			llm.WithClientTimeout(cfg.LLMTimeout),
			llm.WithFactoryLogger(collabLogger),
		)),
		WithHTTPClient(httpclient.New(
			httpclient.WithTimeout(cfg.HTTPTimeout),
			httpclient.WithRateLimit(cfg.HTTPRateLimit, 1),
		)),
		WithExecutorLogger(collabLogger),
	)

	base := []EngineOption{
		WithExecutor(ex),
		WithLogger(logger),
		WithMaxConcurrency(cfg.MaxConcurrency),
		WithOllamaURL(cfg.OllamaURL),
	}
	return NewEngine(append(base, opts...)...)
}

// Executor returns the engine's node executor.
func (e *Engine) Executor() *Executor {
	return e.executor
}

// BuildPlan builds a plan using the engine's default LLM base URL.
func (e *Engine) BuildPlan(nodes []Node, edges []Edge) *ExecutionPlan {
	return BuildExecutionPlan(nodes, edges, WithDefaultOllamaURL(e.ollamaURL))
}
