// Package llm provides a unified chat-completion client over multiple
// providers. The decision-making capability consumed by the routing
// graphs is expressed entirely through this interface, so tests can
// substitute scripted clients.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Roles for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one chat message.
type Message struct {
	Role    string
	Content string

	// Name attributes a user message to a named speaker, when supported
	// by the provider.
	Name string

	// ToolCalls holds calls issued by an assistant message.
	ToolCalls []ToolCall

	// ToolCallID links a tool-role message to the call it answers.
	ToolCallID string
}

// Tool describes a function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is one function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Request is a chat-completion request.
type Request struct {
	Model       string
	Messages    []Message
	Tools       []Tool
	Temperature float32
	MaxTokens   int

	// ForceTool, when set, requires the model to call the named tool.
	ForceTool string
}

// Response is a chat-completion response.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the provider-agnostic chat interface.
type Client interface {
	// Chat performs one chat completion. Implementations honor the
	// context deadline and return an error on timeout, network failure,
	// or a malformed upstream response.
	Chat(ctx context.Context, req Request) (*Response, error)

	// Close releases client resources.
	Close() error
}

// WithTimeout wraps client so every Chat call carries a bounded
// deadline. A hung upstream then surfaces as context.DeadlineExceeded
// instead of stalling the turn. A non-positive timeout returns the
// client unchanged.
func WithTimeout(client Client, timeout time.Duration) Client {
	if timeout <= 0 {
		return client
	}
	return &timeoutClient{inner: client, timeout: timeout}
}

type timeoutClient struct {
	inner   Client
	timeout time.Duration
}

func (c *timeoutClient) Chat(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Chat(ctx, req)
}

func (c *timeoutClient) Close() error { return c.inner.Close() }

// Factory constructs a Client from an API key.
type Factory func(apiKey string) (Client, error)

var (
	factoryMu sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterFactory registers a provider factory under a name.
// Called from provider init functions.
func RegisterFactory(name string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = f
}

// NewClient creates a client for the named provider ("openai", "gemini").
func NewClient(provider, apiKey string) (Client, error) {
	factoryMu.RLock()
	f, ok := factories[provider]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider %q (available: %v)", provider, providerNames())
	}
	return f(apiKey)
}

func providerNames() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
