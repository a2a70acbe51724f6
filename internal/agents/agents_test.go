package agents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/internal/retrieval"
	"github.com/aixgo-dev/vidsense/internal/search"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

// scriptedClient replays canned responses in order and records every
// request it saw.
type scriptedClient struct {
	responses []*llm.Response
	requests  []llm.Request
}

func (c *scriptedClient) Chat(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return &llm.Response{Content: "default answer"}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func (c *scriptedClient) Close() error { return nil }

func toolCallResponse(name string, args map[string]string) *llm.Response {
	b, _ := json.Marshal(args)
	return &llm.Response{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: name, Arguments: b}}}
}

type fixedSearcher struct {
	lastQuery string
	queries   []string
	results   []search.Result
}

func (s *fixedSearcher) Search(_ context.Context, query string) ([]search.Result, error) {
	s.lastQuery = query
	s.queries = append(s.queries, query)
	return s.results, nil
}

// failNthClient fails the nth Chat call and delegates the rest.
type failNthClient struct {
	inner *scriptedClient
	n     int
	calls int
}

func (c *failNthClient) Chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	c.calls++
	if c.calls == c.n {
		return nil, errors.New("summarizer unavailable")
	}
	return c.inner.Chat(ctx, req)
}

func (c *failNthClient) Close() error { return nil }

func TestAgentPlainAnswerEndsLoop(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{{Content: "done"}}}
	a := NewAgent("Sentiment", client, "gpt-4o-mini", sentimentPrompt, nil)

	turn, err := a.Execute(context.Background(), agent.NewState("how do people feel?"))
	require.NoError(t, err)
	assert.Equal(t, "Sentiment", turn.Message.Name)
	assert.Equal(t, "done", turn.Message.Content)
	assert.Empty(t, turn.Documents)
	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Messages[0].Content, "chosen for a reason")
}

func TestAgentRunsToolThenAnswers(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("sentiment_think_tool", map[string]string{"reflection": "mostly positive"}),
		{Content: "Comments are mostly positive."},
	}}
	a := NewSentiment(client, "gpt-4o-mini")

	turn, err := a.Execute(context.Background(), agent.NewState("sentiment?"))
	require.NoError(t, err)
	assert.Equal(t, "Comments are mostly positive.", turn.Message.Content)

	// Second request must carry the tool exchange back to the model.
	second := client.requests[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Contains(t, last.Content, "Sentiment analysis reflection recorded: mostly positive")
}

func TestAgentUnknownTool(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("not_a_tool", map[string]string{"query": "x"}),
	}}
	a := NewSentiment(client, "gpt-4o-mini")

	_, err := a.Execute(context.Background(), agent.NewState("q"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tool "not_a_tool"`)
}

func TestAgentToolLoopBounded(t *testing.T) {
	responses := make([]*llm.Response, maxToolRounds+1)
	for i := range responses {
		responses[i] = toolCallResponse("sentiment_think_tool", map[string]string{"reflection": "again"})
	}
	a := NewSentiment(&scriptedClient{responses: responses}, "gpt-4o-mini")

	_, err := a.Execute(context.Background(), agent.NewState("q"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no final answer")
}

func TestVideoSearchEnhancesQuery(t *testing.T) {
	searcher := &fixedSearcher{results: []search.Result{
		{Title: "Reaction video", URL: "https://r", Content: "people loved it"},
	}}
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("video_specific_search", map[string]string{"query": "public opinion"}),
		{Content: "Coverage was positive."},
	}}
	a := NewVideoSearch(client, "gpt-4o-mini", "gpt-4o-mini", searcher, VideoContext{
		Title:   "Test Video",
		Channel: "Test Channel",
	})

	turn, err := a.Execute(context.Background(), agent.NewState("what did people think?"))
	require.NoError(t, err)
	assert.Equal(t, "Coverage was positive.", turn.Message.Content)
	assert.Contains(t, searcher.lastQuery, "public opinion")
	assert.Contains(t, searcher.lastQuery, `"Test Video"`)
	assert.Contains(t, searcher.lastQuery, "channel:Test Channel")

	// Tool output carries the formatted results back to the model.
	toolMsg := client.requests[1].Messages[len(client.requests[1].Messages)-1]
	assert.Contains(t, toolMsg.Content, "### Result 1")
	assert.Contains(t, toolMsg.Content, "https://r")
}

func TestVideoSearchSummarizesTranscriptOnce(t *testing.T) {
	searcher := &fixedSearcher{}
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("video_specific_search", map[string]string{"query": "first"}),
		{Content: "the transcript summary"}, // summarizer call
		toolCallResponse("video_specific_search", map[string]string{"query": "second"}),
		{Content: "done"},
	}}
	a := NewVideoSearch(client, "gpt-4o-mini", "gpt-4o-mini", searcher, VideoContext{
		Title:      "Test Video",
		Transcript: "a long transcript about things",
	})

	// The summarizer response is consumed between the two tool calls, so
	// a second search reuses the cached summary.
	_, err := a.Execute(context.Background(), agent.NewState("q"))
	require.NoError(t, err)
	assert.Contains(t, searcher.lastQuery, "transcript summary: the transcript summary")
	assert.Len(t, client.requests, 4)
}

func TestVideoSearchRetriesSummaryAfterFailure(t *testing.T) {
	searcher := &fixedSearcher{}
	client := &failNthClient{
		n: 2, // the first summarizer call
		inner: &scriptedClient{responses: []*llm.Response{
			toolCallResponse("video_specific_search", map[string]string{"query": "first"}),
			toolCallResponse("video_specific_search", map[string]string{"query": "second"}),
			{Content: "late summary"}, // retried summarizer call
			{Content: "done"},
		}},
	}
	a := NewVideoSearch(client, "gpt-4o-mini", "gpt-4o-mini", searcher, VideoContext{
		Title:      "Test Video",
		Transcript: "a long transcript about things",
	})

	_, err := a.Execute(context.Background(), agent.NewState("q"))
	require.NoError(t, err)

	// The first search went out without a summary; the second search
	// summarized again instead of giving up for good.
	require.Len(t, searcher.queries, 2)
	assert.NotContains(t, searcher.queries[0], "transcript summary:")
	assert.Contains(t, searcher.queries[1], "transcript summary: late summary")
}

func TestCommentFinderReturnsDocuments(t *testing.T) {
	idx := retrieval.NewIndex([]agent.Document{
		agent.NewDocument("the editing was fantastic", map[string]any{"type": "comment", "author": "ana"}),
		agent.NewDocument("bad audio", map[string]any{"type": "comment", "author": "bob"}),
	})
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("retrieve_information", map[string]string{"query": "editing"}),
		{Content: "ana praised the editing"}, // generator call
		{Content: "Comments praise the editing."},
	}}
	answerer := retrieval.NewAnswerer(client, "gpt-4.1-nano")
	a := NewCommentFinder(client, "gpt-4o-mini", answerer, idx)

	turn, err := a.Execute(context.Background(), agent.NewState("what about the editing?"))
	require.NoError(t, err)
	assert.Equal(t, "Comments praise the editing.", turn.Message.Content)
	require.Len(t, turn.Documents, 1)
	assert.Equal(t, "ana", turn.Documents[0].Metadata["author"])
}
