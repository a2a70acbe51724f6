package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aixgo-dev/vidsense/internal/retrieval"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

// NewCommentFinder creates the internal-research worker. Its tool runs
// retrieval over the video's indexed context and comments; the
// documents it retrieves ride back on the turn as evidence.
func NewCommentFinder(client llm.Client, model string, answerer *retrieval.Answerer, idx *retrieval.Index) *Agent {
	run := func(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
		var q queryArgs
		if err := json.Unmarshal(args, &q); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		answer, docs, err := answerer.Answer(ctx, idx, q.Query, retrieval.DefaultTopK)
		if err != nil {
			return nil, err
		}
		return &ToolResult{Output: answer, Documents: docs}, nil
	}

	return NewAgent("CommentFinder", client, model, commentFinderPrompt, []Tool{{
		Name:        "retrieve_information",
		Description: "Use Retrieval Augmented Generation to retrieve information related to user query.",
		Parameters:  querySchema("query to ask the retrieve information tool"),
		Run:         run,
	}})
}
