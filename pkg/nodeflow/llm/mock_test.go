package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_FixedResponse(t *testing.T) {
	mock := llm.NewMockClient("Hello, world!")

	resp, err := mock.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", resp.Text())

	resp, err = mock.Generate(context.Background(), llm.GenerateRequest{Prompt: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", resp.Response)
}

func TestMockClient_SequentialResponses(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses("first", "second")
	ctx := context.Background()

	for _, want := range []string{"first", "second", "first"} {
		resp, err := mock.Chat(ctx, llm.ChatRequest{})
		require.NoError(t, err)
		assert.Equal(t, want, resp.Text())
	}
}

func TestMockClient_WithError(t *testing.T) {
	expected := errors.New("model not loaded")
	mock := llm.NewMockClient("").WithError(expected)

	_, err := mock.Chat(context.Background(), llm.ChatRequest{})
	assert.Equal(t, expected, err)
}

func TestMockClient_CallTracking(t *testing.T) {
	mock := llm.NewMockClient("ok")
	assert.Nil(t, mock.LastCall())

	_, _ = mock.Chat(context.Background(), llm.ChatRequest{Model: "a"})
	_, _ = mock.Generate(context.Background(), llm.GenerateRequest{Model: "b", Images: []string{"x"}})

	assert.Equal(t, 2, mock.CallCount())
	require.NotNil(t, mock.Calls[0].Chat)
	assert.Equal(t, "a", mock.Calls[0].Chat.Model)

	last := mock.LastCall()
	require.NotNil(t, last.Generate)
	assert.Equal(t, []string{"x"}, last.Generate.Images)
}

func TestMockClient_WithFunc(t *testing.T) {
	mock := llm.NewMockClient("ignored").WithFunc(func(_ context.Context, call llm.Call) (*llm.Response, error) {
		return &llm.Response{Response: "echo:" + call.Generate.Prompt}, nil
	})

	resp, err := mock.Generate(context.Background(), llm.GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "echo:x", resp.Text())
}
