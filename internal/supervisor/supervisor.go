// Package supervisor implements LLM-backed routing for agent graphs.
// A supervisor reads the conversation so far and picks the next worker
// by name, or FINISH when the question is answered.
package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

// routeDecision is the payload the model returns through the forced
// "route" function call.
type routeDecision struct {
	Next string `json:"next"`
}

// Supervisor routes between a fixed set of members using an LLM. It
// implements orchestration.Router.
type Supervisor struct {
	name         string
	client       llm.Client
	model        string
	systemPrompt string
	members      []string
	options      []string
	schema       json.RawMessage
}

// New creates a supervisor for the given members. The routing options
// presented to the model are the members plus FINISH.
func New(name string, client llm.Client, model, systemPrompt string, members []string) *Supervisor {
	options := append([]string{agent.Finish}, members...)
	return &Supervisor{
		name:         name,
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		members:      members,
		options:      options,
		schema:       routeSchema(options),
	}
}

func (s *Supervisor) Name() string { return s.name }

// Decide asks the model for the next worker. The model is forced to
// call the route function, so a well-formed reply always carries a
// decision; anything else is an error.
func (s *Supervisor) Decide(ctx context.Context, state *agent.State) (string, error) {
	messages := make([]llm.Message, 0, len(state.Messages)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	for _, m := range state.Messages {
		role := llm.RoleUser
		if m.Name != agent.UserName {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: fmt.Sprintf("%s: %s", m.Name, m.Content)})
	}
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: routingQuestion(s.options),
	})

	resp, err := s.client.Chat(ctx, llm.Request{
		Model:    s.model,
		Messages: messages,
		Tools: []llm.Tool{{
			Name:        "route",
			Description: "Select the next role.",
			Parameters:  s.schema,
		}},
		ForceTool: "route",
	})
	if err != nil {
		return "", fmt.Errorf("supervisor %s: %w", s.name, err)
	}
	if len(resp.ToolCalls) == 0 {
		return "", fmt.Errorf("supervisor %s: model returned no route call", s.name)
	}

	var decision routeDecision
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &decision); err != nil {
		return "", fmt.Errorf("supervisor %s: parse route arguments: %w", s.name, err)
	}
	choice := strings.TrimSpace(decision.Next)
	if choice == "" {
		return "", fmt.Errorf("supervisor %s: route call missing next field", s.name)
	}
	log.Printf("[SUPERVISOR] %s routed to %s", s.name, choice)
	return choice, nil
}

// routeSchema builds the function parameters constraining the decision
// to the known options.
func routeSchema(options []string) json.RawMessage {
	schema := map[string]any{
		"title": "routeSchema",
		"type":  "object",
		"properties": map[string]any{
			"next": map[string]any{
				"title": "Next",
				"anyOf": []any{
					map[string]any{"enum": options},
				},
			},
		},
		"required": []string{"next"},
	}
	b, err := json.Marshal(schema)
	if err != nil {
		// Static input, cannot fail.
		panic(fmt.Sprintf("marshal route schema: %v", err))
	}
	return b
}
