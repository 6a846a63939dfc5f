package llm

import (
	"context"
	"sync"
)

// Call records one request received by a MockClient.
// Exactly one of Chat or Generate is set.
type Call struct {
	Chat     *ChatRequest
	Generate *GenerateRequest
}

// MockClient is a scripted Client for tests.
// Responses are returned in order and cycle when exhausted.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	next      int
	err       error
	fn        func(ctx context.Context, call Call) (*Response, error)

	// Calls holds every request received, in order.
	Calls []Call
}

// NewMockClient creates a mock that always answers with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{responses: []string{response}}
}

// WithResponses replaces the scripted responses.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.responses = responses
	m.next = 0
	return m
}

// WithError makes every call fail with err.
func (m *MockClient) WithError(err error) *MockClient {
	m.err = err
	return m
}

// WithFunc delegates every call to fn, overriding responses and errors.
func (m *MockClient) WithFunc(fn func(ctx context.Context, call Call) (*Response, error)) *MockClient {
	m.fn = fn
	return m
}

// Chat implements Client.
func (m *MockClient) Chat(ctx context.Context, req ChatRequest) (*Response, error) {
	return m.handle(ctx, Call{Chat: &req})
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	return m.handle(ctx, Call{Generate: &req})
}

func (m *MockClient) handle(ctx context.Context, call Call) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	fn, err := m.fn, m.err
	var text string
	if len(m.responses) > 0 {
		text = m.responses[m.next%len(m.responses)]
		m.next++
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, call)
	}
	if err != nil {
		return nil, err
	}
	if call.Generate != nil {
		return &Response{Response: text, Done: true}, nil
	}
	return &Response{Message: Message{Role: RoleAssistant, Content: text}, Done: true}, nil
}

// CallCount returns the number of calls received.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent call, or nil if none.
func (m *MockClient) LastCall() *Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	c := m.Calls[len(m.Calls)-1]
	return &c
}
