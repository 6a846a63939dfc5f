package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient adapts an OpenAI-compatible chat completions API (OpenAI,
// llama.cpp server, LM Studio, vLLM) to Client. Generate is mapped onto a
// single user message carrying the prompt and any images as data URIs.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a client. baseURL should include the API version
// path (for example "http://localhost:8080/v1"); empty keeps the public
// OpenAI endpoint.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// Chat implements Client.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*Response, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, toOpenAIMessage(m))
	}
	return c.complete(ctx, "chat", req.Model, msgs, req.Options)
}

// Generate implements Client.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	msg := toOpenAIMessage(Message{Role: RoleUser, Content: req.Prompt, Images: req.Images})
	return c.complete(ctx, "generate", req.Model, []openai.ChatCompletionMessage{msg}, req.Options)
}

func (c *OpenAIClient) complete(ctx context.Context, op, model string, msgs []openai.ChatCompletionMessage, opts map[string]any) (*Response, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient."+op)
	defer span.End()

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	if t, ok := opts["temperature"].(float64); ok {
		req.Temperature = float32(t)
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, NewError(op, 0, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, NewError(op, 0, ErrEmptyResponse)
	}

	return &Response{
		Model: resp.Model,
		Message: Message{
			Role:    RoleAssistant,
			Content: resp.Choices[0].Message.Content,
		},
		Done: true,
	}, nil
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessage {
	if len(m.Images) == 0 {
		return openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: m.Content}}
	for _, img := range m.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: fmt.Sprintf("data:image/png;base64,%s", img)},
		})
	}
	return openai.ChatCompletionMessage{Role: string(m.Role), MultiContent: parts}
}
