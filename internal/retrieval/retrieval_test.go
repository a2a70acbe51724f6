package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

func TestSplitTextRespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("the quick brown fox jumps over the lazy dog. ")
	}
	s := NewSplitter(200, 40)
	chunks := s.SplitText(b.String())
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 200, "chunk %d", i)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitTextPrefersParagraphBoundaries(t *testing.T) {
	text := strings.Repeat("a", 100) + "\n\n" + strings.Repeat("b", 100)
	chunks := NewSplitter(120, 20).SplitText(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 100), chunks[0])
	assert.Equal(t, strings.Repeat("b", 100), chunks[1])
}

func TestSplitTextShortInput(t *testing.T) {
	chunks := NewSplitter(0, 0).SplitText("short text")
	assert.Equal(t, []string{"short text"}, chunks)
	assert.Nil(t, NewSplitter(0, 0).SplitText("   "))
}

func TestSplitDocumentKeepsMetadata(t *testing.T) {
	doc := agent.NewDocument(strings.Repeat("word ", 400), map[string]any{"type": "video_context", "video_id": "abc"})
	chunks := NewSplitter(ChunkSize, ChunkOverlap).SplitDocument(doc)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, "video_context", c.Metadata["type"])
		assert.Equal(t, "abc", c.Metadata["video_id"])
	}
}

func indexFixture() *Index {
	return NewIndex([]agent.Document{
		agent.NewDocument("the editing in this video was fantastic", map[string]any{"type": "comment", "author": "ana"}),
		agent.NewDocument("terrible audio quality, could barely hear anything", map[string]any{"type": "comment", "author": "bob"}),
		agent.NewDocument("loved the soundtrack and the editing style", map[string]any{"type": "comment", "author": "cam"}),
		agent.NewDocument("first comment!", map[string]any{"type": "comment", "author": "dee"}),
	})
}

func TestSearchRanksByRelevance(t *testing.T) {
	idx := indexFixture()
	hits := idx.Search("editing", 2)
	require.Len(t, hits, 2)
	authors := []string{hits[0].Metadata["author"].(string), hits[1].Metadata["author"].(string)}
	assert.ElementsMatch(t, []string{"ana", "cam"}, authors)
}

func TestSearchOmitsZeroScores(t *testing.T) {
	idx := indexFixture()
	hits := idx.Search("spaceship", 10)
	assert.Empty(t, hits)
}

func TestSearchEmptyIndexAndQuery(t *testing.T) {
	assert.Nil(t, NewIndex(nil).Search("anything", 3))
	assert.Nil(t, indexFixture().Search("  !!  ", 3))
}

func TestSearchDefaultTopK(t *testing.T) {
	docs := make([]agent.Document, 10)
	for i := range docs {
		docs[i] = agent.NewDocument("comment about editing", map[string]any{"type": "comment"})
	}
	hits := NewIndex(docs).Search("editing", 0)
	assert.Len(t, hits, DefaultTopK)
}

func TestPrepareForRetrieval(t *testing.T) {
	contextDoc := agent.NewDocument(strings.Repeat("transcript line\n", 200), map[string]any{"type": "video_context"})
	comments := []agent.Document{
		agent.NewDocument("nice video", map[string]any{"type": "comment"}),
	}
	docs := PrepareForRetrieval(contextDoc, comments)
	require.Greater(t, len(docs), 2)
	// Comments come last and stay unchunked.
	assert.Equal(t, "nice video", docs[len(docs)-1].Content)
	assert.Equal(t, "video_context", docs[0].Metadata["type"])
}

type cannedClient struct {
	lastReq llm.Request
	content string
	err     error
}

func (c *cannedClient) Chat(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Response{Content: c.content}, nil
}

func (c *cannedClient) Close() error { return nil }

func TestAnswerGroundsInHits(t *testing.T) {
	client := &cannedClient{content: "People praised the editing."}
	answerer := NewAnswerer(client, "gpt-4.1-nano")

	answer, hits, err := answerer.Answer(context.Background(), indexFixture(), "what did people think of the editing?", 2)
	require.NoError(t, err)
	assert.Equal(t, "People praised the editing.", answer)
	require.Len(t, hits, 2)

	prompt := client.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "#CONTEXT:")
	assert.Contains(t, prompt, "[ana]")
	assert.Contains(t, prompt, "what did people think of the editing?")
}

func TestAnswerNoHits(t *testing.T) {
	client := &cannedClient{content: "should not be called"}
	answerer := NewAnswerer(client, "gpt-4.1-nano")

	answer, hits, err := answerer.Answer(context.Background(), indexFixture(), "spaceship", 3)
	require.NoError(t, err)
	assert.Equal(t, "I don't know.", answer)
	assert.Empty(t, hits)
	assert.Empty(t, client.lastReq.Messages)
}
