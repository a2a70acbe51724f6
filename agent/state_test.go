package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	m := NewMessage("Sentiment", "mostly positive")
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Sentiment", m.Name)
	assert.Equal(t, "mostly positive", m.Content)

	ts, err := time.Parse(time.RFC3339, m.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)

	// IDs are unique per message.
	assert.NotEqual(t, m.ID, NewMessage("Sentiment", "again").ID)
}

func TestNewDocumentCopiesMetadata(t *testing.T) {
	meta := map[string]any{"type": "comment", "author": "ana"}
	doc := NewDocument("text", meta)
	meta["author"] = "mallory"
	assert.Equal(t, "ana", doc.Metadata["author"])
	assert.Equal(t, "comment", doc.Type())
}

func TestNewState(t *testing.T) {
	s := NewState("how do people feel?")
	require.Len(t, s.Messages, 1)
	assert.Equal(t, UserName, s.Messages[0].Name)
	assert.False(t, s.HasDocuments())
	assert.Equal(t, "how do people feel?", s.LastMessage().Content)
}

func TestCloneIsolatesSlices(t *testing.T) {
	s := NewState("q")
	s.ReplaceDocuments([]Document{NewDocument("d1", nil)})

	c := s.Clone()
	c.Append(NewMessage("a", "worker acted"))
	c.ReplaceDocuments([]Document{NewDocument("d2", nil), NewDocument("d3", nil)})

	assert.Len(t, s.Messages, 1)
	assert.Len(t, s.Documents, 1)
	assert.Len(t, c.Messages, 2)
	assert.Len(t, c.Documents, 2)
}

func TestForTeam(t *testing.T) {
	s := NewState("q")
	s.Next = "Research team"
	s.Members = []string{"Research team", "Analysis team"}
	s.ReplaceDocuments([]Document{NewDocument("d", nil)})

	inner := s.ForTeam([]string{"VideoSearch", "CommentFinder"})
	assert.Empty(t, inner.Next)
	assert.Equal(t, []string{"VideoSearch", "CommentFinder"}, inner.Members)
	assert.Len(t, inner.Messages, 1)
	assert.True(t, inner.HasDocuments())

	// The outer state keeps its own routing context.
	assert.Equal(t, "Research team", s.Next)
}

func TestLastMessageEmpty(t *testing.T) {
	var s State
	assert.Equal(t, Message{}, s.LastMessage())
}
