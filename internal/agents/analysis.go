package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aixgo-dev/vidsense/pkg/llm"
)

type reflectionArgs struct {
	Reflection string `json:"reflection"`
}

func reflectionSchema(description string) json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reflection": map[string]any{"type": "string", "description": description},
		},
		"required": []string{"reflection"},
	}
	b, _ := json.Marshal(schema)
	return b
}

// reflectionTool records a deliberate reasoning pause. The echo back
// to the model is the whole point; no external effect.
func reflectionTool(name, description, ack, argDescription string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  reflectionSchema(argDescription),
		Run: func(_ context.Context, args json.RawMessage) (*ToolResult, error) {
			var r reflectionArgs
			if err := json.Unmarshal(args, &r); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			return &ToolResult{Output: fmt.Sprintf("%s: %s", ack, r.Reflection)}, nil
		},
	}
}

// NewSentiment creates the sentiment-analysis worker. It works over the
// evidence already in the conversation; its tool is a reflection aid.
func NewSentiment(client llm.Client, model string) *Agent {
	return NewAgent("Sentiment", client, model, sentimentPrompt, []Tool{
		reflectionTool(
			"sentiment_think_tool",
			"Sentiment analysis reflection tool for quality decision-making. Use to pause and reflect on sentiment patterns, data quality, classification confidence, and completeness before finalizing conclusions.",
			"Sentiment analysis reflection recorded",
			"Your detailed reflection on sentiment analysis findings, patterns, and next steps",
		),
	})
}

// NewTopic creates the topic-extraction worker.
func NewTopic(client llm.Client, model string) *Agent {
	return NewAgent("Topic", client, model, topicPrompt, []Tool{
		reflectionTool(
			"topic_think_tool",
			"Topic extraction reflection tool for quality categorization. Use to pause and reflect on discovered themes, topic coverage, classification confidence, and completeness before finalizing topic conclusions.",
			"Topic extraction reflection recorded",
			"Your detailed reflection on topic extraction findings, themes, and next steps",
		),
	})
}
