package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer records the decoded body of the last request.
func newTestServer(t *testing.T, status int, reply string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			body := map[string]any{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			body["_path"] = r.URL.Path
			*got = body
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaClient_Chat(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, http.StatusOK, `{"model":"llama3","message":{"role":"assistant","content":"Hi there"},"done":true}`, &got)

	c := NewOllamaClient(srv.URL + "/")
	resp, err := c.Chat(context.Background(), ChatRequest{
		Model: "llama3",
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hello"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hi there", resp.Text())
	assert.Equal(t, "/api/chat", got["_path"])
	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, false, got["stream"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestOllamaClient_Generate(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, http.StatusOK, `{"model":"llava","response":"a cat","done":true}`, &got)

	c := NewOllamaClient(srv.URL)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:  "llava",
		Prompt: "describe",
		Images: []string{"aGVsbG8="},
	})

	require.NoError(t, err)
	assert.Equal(t, "a cat", resp.Text())
	assert.Equal(t, "/api/generate", got["_path"])
	assert.Equal(t, []any{"aGVsbG8="}, got["images"])
}

func TestOllamaClient_Errors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := newTestServer(t, http.StatusNotFound, `model "nope" not found`, nil)
		_, err := NewOllamaClient(srv.URL).Chat(context.Background(), ChatRequest{Model: "nope"})

		var llmErr *Error
		require.ErrorAs(t, err, &llmErr)
		assert.Equal(t, http.StatusNotFound, llmErr.Status)
		assert.Equal(t, "chat", llmErr.Op)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("empty completion", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, `{"done":true}`, nil)
		_, err := NewOllamaClient(srv.URL).Generate(context.Background(), GenerateRequest{Model: "m"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, `{not json`, nil)
		_, err := NewOllamaClient(srv.URL).Chat(context.Background(), ChatRequest{Model: "m"})
		assert.ErrorContains(t, err, "decode response")
	})

	t.Run("unreachable server", func(t *testing.T) {
		_, err := NewOllamaClient("http://127.0.0.1:1", WithTimeout(time.Second)).
			Chat(context.Background(), ChatRequest{Model: "m"})
		var llmErr *Error
		require.ErrorAs(t, err, &llmErr)
		assert.Zero(t, llmErr.Status)
	})

	t.Run("cancelled context", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-block
		}))
		defer srv.Close()
		defer close(block)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := NewOllamaClient(srv.URL).Chat(ctx, ChatRequest{Model: "m"})
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestStripDataURI(t *testing.T) {
	assert.Equal(t, "iVBOR", StripDataURI("data:image/png;base64,iVBOR"))
	assert.Equal(t, "iVBOR", StripDataURI("iVBOR"))
	assert.Equal(t, "data:broken", StripDataURI("data:broken"))
}

func TestResponse_Text(t *testing.T) {
	var nilResp *Response
	assert.Empty(t, nilResp.Text())
	assert.Equal(t, "msg", (&Response{Message: Message{Content: "msg"}, Response: "gen"}).Text())
	assert.Equal(t, "gen", (&Response{Response: "gen"}).Text())
}
