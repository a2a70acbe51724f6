// Package agents implements the worker agents: research workers that
// gather evidence and analysis workers that interpret it. Each worker
// runs a function-calling loop against its own tool set.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/internal/orchestration"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

// autonomySuffix is appended to every worker prompt.
const autonomySuffix = "\nWork autonomously according to your specialty, using the tools available to you. Do not ask for clarification. Your other team members (and other teams) will collaborate with you with their own specialties. You are chosen for a reason!"

// maxToolRounds bounds the tool loop so a confused model cannot spin.
const maxToolRounds = 6

// ToolResult is what a tool invocation produced: text for the model,
// plus any documents that should surface as evidence.
type ToolResult struct {
	Output    string
	Documents []agent.Document
}

// ToolFunc executes one tool call.
type ToolFunc func(ctx context.Context, args json.RawMessage) (*ToolResult, error)

// Tool pairs a function-calling schema with its implementation.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Run         ToolFunc
}

// Agent is a function-calling worker. It implements
// orchestration.Worker.
type Agent struct {
	name   string
	client llm.Client
	model  string
	prompt string
	tools  []Tool
}

// NewAgent creates a worker with the given tool set.
func NewAgent(name string, client llm.Client, model, prompt string, tools []Tool) *Agent {
	return &Agent{
		name:   name,
		client: client,
		model:  model,
		prompt: prompt + autonomySuffix,
		tools:  tools,
	}
}

func (a *Agent) Name() string { return a.name }

// Execute runs the tool loop until the model answers in plain text.
// Documents produced by tools along the way ride back on the turn.
func (a *Agent) Execute(ctx context.Context, state *agent.State) (*orchestration.Turn, error) {
	messages := a.seedMessages(state)

	var gathered []agent.Document
	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.client.Chat(ctx, llm.Request{
			Model:    a.model,
			Messages: messages,
			Tools:    a.toolSchemas(),
		})
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.name, err)
		}

		if len(resp.ToolCalls) == 0 {
			return &orchestration.Turn{
				Message:   agent.NewMessage(a.name, resp.Content),
				Documents: gathered,
			}, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result, err := a.runTool(ctx, call)
			if err != nil {
				return nil, fmt.Errorf("agent %s: tool %s: %w", a.name, call.Name, err)
			}
			gathered = append(gathered, result.Documents...)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result.Output,
				ToolCallID: call.ID,
			})
		}
	}
	return nil, fmt.Errorf("agent %s: no final answer after %d tool rounds", a.name, maxToolRounds)
}

func (a *Agent) seedMessages(state *agent.State) []llm.Message {
	messages := make([]llm.Message, 0, len(state.Messages)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.prompt})
	for _, m := range state.Messages {
		role := llm.RoleUser
		if m.Name != agent.UserName {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: fmt.Sprintf("%s: %s", m.Name, m.Content)})
	}
	return messages
}

func (a *Agent) toolSchemas() []llm.Tool {
	out := make([]llm.Tool, len(a.tools))
	for i, t := range a.tools {
		out[i] = llm.Tool{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
	}
	return out
}

func (a *Agent) runTool(ctx context.Context, call llm.ToolCall) (*ToolResult, error) {
	for _, t := range a.tools {
		if t.Name == call.Name {
			log.Printf("[AGENT] %s calling %s", a.name, call.Name)
			return t.Run(ctx, call.Arguments)
		}
	}
	return nil, fmt.Errorf("unknown tool %q", call.Name)
}

// queryArgs is the single-argument schema most tools share.
type queryArgs struct {
	Query string `json:"query"`
}

func querySchema(description string) json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": description},
		},
		"required": []string{"query"},
	}
	b, _ := json.Marshal(schema)
	return b
}
