package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

func init() {
	RegisterFactory("gemini", func(apiKey string) (Client, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("gemini: api key is required")
		}
		return NewGeminiClient(context.Background(), apiKey)
	})
}

// GeminiClient adapts the google genai SDK to the Client interface.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Chat(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{}
	config.Temperature = genai.Ptr(req.Temperature)
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents, system := buildGeminiContents(req.Messages)
	if system != nil {
		config.SystemInstruction = system
	}
	if len(req.Tools) > 0 {
		config.Tools = buildGeminiTools(req.Tools)
	}
	if req.ForceTool != "" {
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{req.ForceTool},
			},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini generate content: no candidates in response")
	}

	candidate := resp.Candidates[0]
	out := &Response{FinishReason: string(candidate.FinishReason)}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				out.Content += part.Text
			}
			if part.FunctionCall != nil {
				args, _ := json.Marshal(part.FunctionCall.Args)
				out.ToolCalls = append(out.ToolCalls, ToolCall{
					ID:        part.FunctionCall.Name,
					Name:      part.FunctionCall.Name,
					Arguments: args,
				})
			}
		}
	}
	return out, nil
}

// Close implements Client. The genai client holds no resources that
// need explicit release.
func (c *GeminiClient) Close() error { return nil }

func buildGeminiContents(messages []Message) ([]*genai.Content, *genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		case RoleTool:
			var result map[string]any
			if err := json.Unmarshal([]byte(m.Content), &result); err != nil {
				result = map[string]any{"output": m.Content}
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     m.ToolCallID,
						Response: result,
					},
				}},
			})
		case RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}
	return contents, system
}

func buildGeminiTools(tools []Tool) []*genai.Tool {
	funcDecls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		var params *genai.Schema
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &params); err != nil {
				params = nil
			}
		}
		funcDecls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: funcDecls}}
}
