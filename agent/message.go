package agent

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is one attributed entry in a conversation log.
// Messages are immutable once created and are only ever appended.
type Message struct {
	// ID is a unique identifier for this message, automatically generated.
	ID string `json:"id"`

	// Name identifies the speaker: "user" or an agent name
	// (e.g. "VideoSearch", "Sentiment").
	Name string `json:"name"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp is the ISO 8601 timestamp when the message was created.
	Timestamp string `json:"timestamp"`
}

// NewMessage creates a message attributed to the given speaker.
// A unique ID and timestamp are generated automatically.
func NewMessage(name, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Name:      name,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// String returns a short representation for debugging.
func (m Message) String() string {
	return fmt.Sprintf("Message{Name:%s, ID:%s}", m.Name, m.ID)
}

// Document is a retrieved unit of evidence with content and provenance
// metadata. Documents are produced only by research capabilities.
type Document struct {
	// Content is the document text.
	Content string `json:"content"`

	// Metadata carries provenance: a "type" tag plus source identifiers
	// (video_id, author, likes, published for comment documents).
	Metadata map[string]any `json:"metadata"`
}

// NewDocument creates a document with a copy of the given metadata.
func NewDocument(content string, metadata map[string]any) Document {
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return Document{Content: content, Metadata: md}
}

// Type returns the document's "type" metadata tag, or "" if unset.
func (d Document) Type() string {
	if t, ok := d.Metadata["type"].(string); ok {
		return t
	}
	return ""
}
