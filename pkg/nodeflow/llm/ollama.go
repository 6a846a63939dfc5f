package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("nodeflow.llm")

// OllamaClient talks to an Ollama server's /api/chat and /api/generate
// endpoints with streaming disabled.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// OllamaOption configures an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) OllamaOption {
	return func(c *OllamaClient) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout of the default HTTP client.
func WithTimeout(d time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) OllamaOption {
	return func(c *OllamaClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewOllamaClient creates a client for the Ollama server at baseURL
// (for example "http://localhost:11434").
func NewOllamaClient(baseURL string, opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address the client was created for.
func (c *OllamaClient) BaseURL() string {
	return c.baseURL
}

type ollamaChatRequest struct {
	ChatRequest
	Stream bool `json:"stream"`
}

type ollamaGenerateRequest struct {
	GenerateRequest
	Stream bool `json:"stream"`
}

// Chat implements Client.
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (*Response, error) {
	return c.post(ctx, "chat", "/api/chat", req.Model, ollamaChatRequest{ChatRequest: req})
}

// Generate implements Client.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	return c.post(ctx, "generate", "/api/generate", req.Model, ollamaGenerateRequest{GenerateRequest: req})
}

func (c *OllamaClient) post(ctx context.Context, op, path, model string, payload any) (*Response, error) {
	ctx, span := tracer.Start(ctx, "OllamaClient."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", model),
		attribute.String("llm.base_url", c.baseURL),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(op, 0, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(op, 0, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending ollama request", "op", op, "model", model, "url", c.baseURL+path)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, NewError(op, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%s", strings.TrimSpace(string(respBody)))
		span.SetStatus(codes.Error, "non-200 response")
		return nil, NewError(op, resp.StatusCode, err)
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, NewError(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if out.Text() == "" {
		return nil, NewError(op, resp.StatusCode, ErrEmptyResponse)
	}
	return &out, nil
}
