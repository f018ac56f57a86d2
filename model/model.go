package model

import (
	"context"
	"fmt"
	"sync"
)

// Request captures one normalized completion call: a fixed persona
// instruction (system prompt) plus the built user prompt.
type Request struct {
	Instruction string `json:"instruction"`
	Prompt      string `json:"prompt"`
}

// Usage captures token usage statistics for a response when the provider
// reports them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed (non-streaming) model output.
type Response struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
}

// Model is the minimal interface the pipeline needs to drive generation.
// Implementations apply their configured generation parameters uniformly to
// every call and must respect context cancellation.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Without a canned response it echoes the received prompt, which lets tests
// assert prompt construction by containment. It is safe for concurrent use.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	failOn    int
	failErr   error
	calls     []Request
}

// NewMockModel constructs a MockModel identified by name and provider.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailOn makes the n-th Complete call (1-based) return err instead of a
// response. Zero disables injected failures.
func (m *MockModel) FailOn(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = n
	m.failErr = err
}

// Calls returns a copy of every request received so far, in order.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Request, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if m.failOn > 0 && len(m.calls) == m.failOn {
		return nil, m.failErr
	}

	text, ok := m.responses[req.Prompt]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}

	return &Response{Text: text, FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
