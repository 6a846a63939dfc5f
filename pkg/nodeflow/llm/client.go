package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is an LLM completion backend.
// Implementations must be safe for concurrent use; nodes of the same wave
// share clients.
type Client interface {
	// Chat runs a chat-style completion.
	Chat(ctx context.Context, req ChatRequest) (*Response, error)

	// Generate runs a prompt completion, optionally with images.
	Generate(ctx context.Context, req GenerateRequest) (*Response, error)
}

// ErrEmptyResponse indicates the backend answered without any completion text.
var ErrEmptyResponse = errors.New("empty completion")

// Error describes a failed backend call.
type Error struct {
	// Op is the failed call ("chat" or "generate").
	Op string
	// Status is the HTTP status code, zero for transport failures.
	Status int
	// Err is the underlying error.
	Err error
}

// NewError creates an Error for a failed operation.
func NewError(op string, status int, err error) *Error {
	return &Error{Op: op, Status: status, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}
