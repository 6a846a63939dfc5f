package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultOllamaURL is the LLM service endpoint used when neither the engine
// configuration nor any llm-prompt node names one.
const DefaultOllamaURL = "http://localhost:11434"

// Environment variable names read by LoadEngine. They override file values.
const (
	EnvOllamaURL      = "NODEFLOW_OLLAMA_URL"
	EnvLLMProvider    = "NODEFLOW_LLM_PROVIDER"
	EnvOpenAIAPIKey   = "NODEFLOW_OPENAI_API_KEY"
	EnvMaxConcurrency = "NODEFLOW_MAX_CONCURRENCY"
	EnvLLMTimeout     = "NODEFLOW_LLM_TIMEOUT"
	EnvHTTPTimeout    = "NODEFLOW_HTTP_TIMEOUT"
	EnvHTTPRateLimit  = "NODEFLOW_HTTP_RATE_LIMIT"
	EnvRunStore       = "NODEFLOW_RUN_STORE"
)

// Engine holds process-wide settings for the execution engine and its
// network collaborators.
type Engine struct {
	// OllamaURL is the default LLM base URL merged into every plan.
	OllamaURL string
	// LLMProvider selects the client for llm-prompt nodes: "ollama" or "openai".
	LLMProvider string
	// OpenAIAPIKey is sent when LLMProvider is "openai".
	OpenAIAPIKey string
	// MaxConcurrency bounds how many nodes of one wave run at once.
	MaxConcurrency int
	// LLMTimeout bounds a single completion call.
	LLMTimeout time.Duration
	// HTTPTimeout bounds a single api-call request.
	HTTPTimeout time.Duration
	// HTTPRateLimit is the api-call request budget per second. Zero disables limiting.
	HTTPRateLimit float64
	// RunStore is a SQLite path for the run log; empty keeps runs in memory.
	RunStore string
}

// DefaultEngine returns the built-in engine settings.
func DefaultEngine() Engine {
	return Engine{
		OllamaURL:      DefaultOllamaURL,
		LLMProvider:    "ollama",
		MaxConcurrency: 8,
		LLMTimeout:     5 * time.Minute,
		HTTPTimeout:    30 * time.Second,
	}
}

// EngineFrom overlays the keys present in c on top of DefaultEngine.
//
// Recognised keys: ollama_url, llm_provider, openai_api_key, max_concurrency,
// llm_timeout, http_timeout, http_rate_limit, run_store.
func EngineFrom(c Config) Engine {
	e := DefaultEngine()
	e.OllamaURL = c.NonEmptyString("ollama_url", e.OllamaURL)
	e.LLMProvider = c.NonEmptyString("llm_provider", e.LLMProvider)
	e.OpenAIAPIKey = c.String("openai_api_key", e.OpenAIAPIKey)
	e.MaxConcurrency = c.Int("max_concurrency", e.MaxConcurrency)
	e.LLMTimeout = c.Duration("llm_timeout", e.LLMTimeout)
	e.HTTPTimeout = c.Duration("http_timeout", e.HTTPTimeout)
	e.HTTPRateLimit = c.Float("http_rate_limit", e.HTTPRateLimit)
	e.RunStore = c.String("run_store", e.RunStore)
	return e
}

// LoadEngine builds engine settings from an optional config file, an
// optional .env file and the process environment, in increasing precedence.
// Either path may be empty. A missing .env file is not an error.
func LoadEngine(path, envFile string) (Engine, error) {
	c := New(nil)
	if path != "" {
		var err error
		if c, err = FromFile(path); err != nil {
			return Engine{}, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Engine{}, fmt.Errorf("load env file: %w", err)
		}
	}

	return EngineFrom(New(overlayEnv(c.Raw()))), nil
}

// overlayEnv copies data and replaces keys whose NODEFLOW_* variable is set.
func overlayEnv(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}

	vars := map[string]string{
		EnvOllamaURL:      "ollama_url",
		EnvLLMProvider:    "llm_provider",
		EnvOpenAIAPIKey:   "openai_api_key",
		EnvMaxConcurrency: "max_concurrency",
		EnvLLMTimeout:     "llm_timeout",
		EnvHTTPTimeout:    "http_timeout",
		EnvHTTPRateLimit:  "http_rate_limit",
		EnvRunStore:       "run_store",
	}
	for env, key := range vars {
		if v, ok := os.LookupEnv(env); ok {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}
