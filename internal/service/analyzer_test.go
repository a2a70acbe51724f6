package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/internal/orchestration"
	"github.com/aixgo-dev/vidsense/internal/search"
	"github.com/aixgo-dev/vidsense/internal/session"
	"github.com/aixgo-dev/vidsense/internal/youtube"
	"github.com/aixgo-dev/vidsense/pkg/config"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

// scriptedClient replays responses in call order. The machine's calls
// are strictly sequential, so one queue scripts a whole turn.
type scriptedClient struct {
	t         *testing.T
	responses []*llm.Response
	calls     int
}

func (c *scriptedClient) Chat(_ context.Context, _ llm.Request) (*llm.Response, error) {
	require.Less(c.t, c.calls, len(c.responses), "unexpected llm call %d", c.calls)
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func (c *scriptedClient) Close() error { return nil }

func route(next string) *llm.Response {
	args, _ := json.Marshal(map[string]string{"next": next})
	return &llm.Response{ToolCalls: []llm.ToolCall{{ID: "r", Name: "route", Arguments: args}}}
}

func toolCall(name, query string) *llm.Response {
	args, _ := json.Marshal(map[string]string{"query": query})
	return &llm.Response{ToolCalls: []llm.ToolCall{{ID: "t", Name: name, Arguments: args}}}
}

func text(content string) *llm.Response {
	return &llm.Response{Content: content}
}

type fakeFetcher struct {
	data *youtube.VideoData
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, _ int) (*youtube.VideoData, error) {
	return f.data, f.err
}

type noopSearcher struct{}

func (noopSearcher) Search(_ context.Context, _ string) ([]search.Result, error) {
	return nil, nil
}

func videoData() *youtube.VideoData {
	return &youtube.VideoData{
		Video: youtube.Video{
			ID:      "dQw4w9WgXcQ",
			Title:   "Test Video",
			Channel: "Test Channel",
		},
		Comments: []youtube.Comment{
			{Text: "the editing in these comments sections is great", Author: "ana", Likes: 3},
			{Text: "comments like this make my day", Author: "bob", Likes: 1},
		},
		Transcript: "",
	}
}

func newAnalyzer(t *testing.T, responses []*llm.Response) (*Analyzer, *scriptedClient) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	client := &scriptedClient{t: t, responses: responses}
	store := session.NewStore(session.WithTTL(time.Hour))
	return NewAnalyzer(cfg, client, noopSearcher{}, &fakeFetcher{data: videoData()}, store, session.NewMemoryBackend()), client
}

// fullTurnScript drives one complete research-then-analysis turn. The
// first routing choice asks for analysis before any documents exist,
// so the guard has to rewrite it to research.
func fullTurnScript() []*llm.Response {
	return []*llm.Response{
		route(AnalysisTeam), // guard rewrites: no documents yet
		route("CommentFinder"),
		toolCall("retrieve_information", "comments sentiment"),
		text("ana and bob left upbeat comments"), // grounded generation
		text("Here is what commenters said."),    // CommentFinder answer
		route(agent.Finish),                      // research done
		route(AnalysisTeam),                      // documents present now
		route("Sentiment"),
		text("Overall positive."),
		route(agent.Finish), // analysis done
		route(agent.Finish), // system done
	}
}

func TestAnalyzeFullTurn(t *testing.T) {
	analyzer, client := newAnalyzer(t, fullTurnScript())

	var events []Event
	err := analyzer.Analyze(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", 0, "How do people feel?", func(e Event) {
		events = append(events, e)
	})
	require.NoError(t, err)
	assert.Equal(t, len(client.responses), client.calls)

	require.GreaterOrEqual(t, len(events), 5)
	assert.Equal(t, EventProgress, events[0].Type)
	assert.Equal(t, EventProgress, events[1].Type)

	created := events[2]
	assert.Equal(t, EventSessionCreated, created.Type)
	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, "Test Video", created.Title)

	var agentMessages int
	for _, e := range events {
		if e.Type == EventAgentMessage {
			agentMessages++
		}
	}
	// CommentFinder and Sentiment each acted once; the team fold in the
	// system graph must not repeat their messages.
	assert.Equal(t, 2, agentMessages)

	final := events[len(events)-1]
	assert.Equal(t, EventFinal, final.Type)
	assert.Equal(t, "Overall positive.", final.Content)
	assert.NotEmpty(t, final.Documents, "research evidence must survive the analysis pass")

	// The committed checkpoint holds the conversation for follow-ups.
	sess, err := analyzer.Store().Get(created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess.Checkpoint)
	assert.Len(t, sess.Checkpoint.Messages, 3)
	assert.Equal(t, agent.UserName, sess.Checkpoint.Messages[0].Name)
	assert.NotEmpty(t, sess.Checkpoint.Documents)
}

func TestQueryFollowUpReusesEvidence(t *testing.T) {
	script := append(fullTurnScript(),
		// Second turn: documents already cached, straight to analysis.
		route(AnalysisTeam),
		route("Topic"),
		text("Main topic: the editing."),
		route(agent.Finish),
		route(agent.Finish),
	)
	analyzer, client := newAnalyzer(t, script)

	var sessionID string
	err := analyzer.Analyze(context.Background(), "dQw4w9WgXcQ", 0, "How do people feel?", func(e Event) {
		if e.Type == EventSessionCreated {
			sessionID = e.SessionID
		}
	})
	require.NoError(t, err)

	var events []Event
	err = analyzer.Query(context.Background(), sessionID, "What topics come up?", func(e Event) {
		events = append(events, e)
	})
	require.NoError(t, err)
	assert.Equal(t, len(client.responses), client.calls)

	final := events[len(events)-1]
	assert.Equal(t, EventFinal, final.Type)
	assert.Equal(t, "Main topic: the editing.", final.Content)
	// The analysis turn produced no documents; the first turn's
	// evidence still backs the answer.
	assert.NotEmpty(t, final.Documents)

	sess, err := analyzer.Store().Get(sessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Checkpoint.Messages, 5)
}

func TestQueryUnknownSession(t *testing.T) {
	analyzer, _ := newAnalyzer(t, nil)
	err := analyzer.Query(context.Background(), "missing", "q", func(Event) {})
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestAnalyzeInvalidURL(t *testing.T) {
	analyzer, _ := newAnalyzer(t, nil)
	err := analyzer.Analyze(context.Background(), "https://example.com/nope", 0, "q", func(Event) {})
	assert.ErrorIs(t, err, youtube.ErrInvalidURL)
}

func TestFailedTurnKeepsCheckpoint(t *testing.T) {
	script := append(fullTurnScript(),
		route("Bogus team"), // unknown route on the follow-up
	)
	analyzer, _ := newAnalyzer(t, script)

	var sessionID string
	err := analyzer.Analyze(context.Background(), "dQw4w9WgXcQ", 0, "How do people feel?", func(e Event) {
		if e.Type == EventSessionCreated {
			sessionID = e.SessionID
		}
	})
	require.NoError(t, err)

	err = analyzer.Query(context.Background(), sessionID, "follow up", func(Event) {})
	require.Error(t, err)
	var unknownRoute *orchestration.UnknownRouteError
	assert.ErrorAs(t, err, &unknownRoute)

	// The failed turn must not disturb the committed conversation.
	sess, err := analyzer.Store().Get(sessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Checkpoint.Messages, 3)
}
