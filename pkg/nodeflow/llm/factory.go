package llm

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/config"
)

// Provider names accepted in node config and engine settings.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Factory returns the client for an llm-prompt node. baseURL is the already
// resolved service address (node override or plan default); cfg is the
// node's own configuration, which may select a provider or API key.
type Factory func(baseURL string, cfg config.Config) Client

// FactoryOption configures NewFactory.
type FactoryOption func(*factory)

type factory struct {
	provider string
	apiKey   string
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[string]Client
}

// WithDefaultProvider sets the provider used when a node does not name one.
func WithDefaultProvider(p string) FactoryOption {
	return func(f *factory) {
		if p != "" {
			f.provider = strings.ToLower(p)
		}
	}
}

// WithAPIKey sets the API key for OpenAI-compatible backends.
func WithAPIKey(key string) FactoryOption {
	return func(f *factory) { f.apiKey = key }
}

// WithClientTimeout bounds each completion call.
func WithClientTimeout(d time.Duration) FactoryOption {
	return func(f *factory) { f.timeout = d }
}

// WithFactoryLogger sets the logger handed to created clients.
func WithFactoryLogger(logger *slog.Logger) FactoryOption {
	return func(f *factory) { f.logger = logger }
}

// NewFactory returns a Factory that builds clients on demand and reuses them
// per (provider, base URL, API key).
func NewFactory(opts ...FactoryOption) Factory {
	f := &factory{
		provider: ProviderOllama,
		timeout:  5 * time.Minute,
		logger:   slog.Default(),
		clients:  make(map[string]Client),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f.get
}

// Static returns a Factory that always hands out c. Useful in tests and
// when a single backend serves every node.
func Static(c Client) Factory {
	return func(string, config.Config) Client { return c }
}

func (f *factory) get(baseURL string, cfg config.Config) Client {
	provider := strings.ToLower(cfg.NonEmptyString("provider", f.provider))
	apiKey := cfg.NonEmptyString("apiKey", f.apiKey)
	key := provider + "|" + baseURL + "|" + apiKey

	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[key]; ok {
		return c
	}

	var c Client
	switch provider {
	case ProviderOpenAI:
		c = NewOpenAIClient(baseURL, apiKey)
	default:
		c = NewOllamaClient(baseURL, WithTimeout(f.timeout), WithLogger(f.logger))
	}
	f.clients[key] = c
	return c
}
