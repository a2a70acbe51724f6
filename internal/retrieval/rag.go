package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

const answerTemplate = `#CONTEXT:
%s

QUERY:
%s

Use the provided context, which consists of YouTube comments, to answer the user query. Only use the provided context to answer the query. When forming your response, take into account the topics discussed, the users who made the comments, and the sentiment expressed in the comments to increase factual correctness and answer relevancy. The chatbot is intended to answer questions about users' opinions of the video. If you do not know the answer, or it is not contained in the provided context, respond with "I don't know."`

// PrepareForRetrieval produces the document set a query-time index is
// built over: the video context split into chunks, plus every comment
// as its own document.
func PrepareForRetrieval(contextDoc agent.Document, comments []agent.Document) []agent.Document {
	splitter := NewSplitter(ChunkSize, ChunkOverlap)
	docs := splitter.SplitDocument(contextDoc)
	return append(docs, comments...)
}

// Answerer generates grounded answers from retrieved documents.
type Answerer struct {
	client llm.Client
	model  string
}

// NewAnswerer creates an answerer bound to a model.
func NewAnswerer(client llm.Client, model string) *Answerer {
	return &Answerer{client: client, model: model}
}

// Answer retrieves from the index and generates a response grounded in
// the hits. It returns the response plus the documents it was grounded
// in, so callers can surface the evidence.
func (a *Answerer) Answer(ctx context.Context, idx *Index, question string, topK int) (string, []agent.Document, error) {
	hits := idx.Search(question, topK)
	if len(hits) == 0 {
		return "I don't know.", nil, nil
	}

	resp, err := a.client.Chat(ctx, llm.Request{
		Model: a.model,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(answerTemplate, formatContext(hits), question),
		}},
	})
	if err != nil {
		return "", nil, fmt.Errorf("generate answer: %w", err)
	}
	return resp.Content, hits, nil
}

func formatContext(docs []agent.Document) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		if author, ok := doc.Metadata["author"].(string); ok && author != "" {
			parts[i] = fmt.Sprintf("[%s] %s", author, doc.Content)
			continue
		}
		parts[i] = doc.Content
	}
	return strings.Join(parts, "\n\n")
}
