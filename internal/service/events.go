package service

// Event types streamed to clients while a turn runs.
const (
	EventProgress       = "progress"
	EventSessionCreated = "session_created"
	EventAgentMessage   = "agent_message"
	EventFinal          = "final"
	EventError          = "error"
)

// DocumentView is the client-facing projection of a document.
type DocumentView struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Event is one streamed message. Fields are populated per type.
type Event struct {
	Type      string         `json:"type"`
	Content   string         `json:"content,omitempty"`
	Agent     string         `json:"agent,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	VideoID   string         `json:"video_id,omitempty"`
	Title     string         `json:"video_title,omitempty"`
	Channel   string         `json:"channel_name,omitempty"`
	Documents []DocumentView `json:"documents,omitempty"`
}

// Emit delivers one event to the client.
type Emit func(Event)

func progressEvent(content string) Event {
	return Event{Type: EventProgress, Content: content}
}

func agentMessageEvent(agent, content string) Event {
	return Event{Type: EventAgentMessage, Agent: agent, Content: content}
}
