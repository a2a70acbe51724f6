package agent

// Finish is the terminal routing sentinel. A router that returns Finish
// ends the current graph level's loop.
const Finish = "FINISH"

// UserName attributes messages originating from the caller's question.
const UserName = "user"

// State is the conversation state threaded through every graph level.
// The message log and document set persist across levels; Next and
// Members are level-local and are re-derived when entering a nested level.
type State struct {
	// Messages is the append-only conversation log, in insertion order.
	Messages []Message `json:"messages"`

	// Documents is the current evidence set. Insertion order carries no
	// meaning and duplicates are permitted.
	Documents []Document `json:"documents"`

	// Next is the routing decision at this level: a member name or Finish.
	Next string `json:"next,omitempty"`

	// Members lists the capability names that are valid routing choices
	// at this level.
	Members []string `json:"members,omitempty"`
}

// NewState creates the initial state for a turn: the user's question as
// the sole message and no documents.
func NewState(question string) *State {
	return &State{
		Messages: []Message{NewMessage(UserName, question)},
	}
}

// Clone returns a copy with fresh slices so that appends and document
// replacement on the copy never reach the original. Messages and
// Documents themselves are immutable by convention and are shared.
func (s *State) Clone() *State {
	c := &State{
		Messages:  make([]Message, len(s.Messages)),
		Documents: make([]Document, len(s.Documents)),
		Next:      s.Next,
		Members:   append([]string(nil), s.Members...),
	}
	copy(c.Messages, s.Messages)
	copy(c.Documents, s.Documents)
	return c
}

// ForTeam projects this state down into a nested team level: outer routing
// context is stripped, the team's member list is injected, and the message
// log and document set carry over unchanged.
func (s *State) ForTeam(members []string) *State {
	c := s.Clone()
	c.Next = ""
	c.Members = append([]string(nil), members...)
	return c
}

// Append adds messages to the log. The log is append-only; nothing is
// ever reordered or removed.
func (s *State) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// ReplaceDocuments swaps in a new document set. Callers apply the
// keep-on-empty rule: this must only be called with a non-empty set.
func (s *State) ReplaceDocuments(docs []Document) {
	s.Documents = append([]Document(nil), docs...)
}

// LastMessage returns the most recent message, or a zero Message when the
// log is empty.
func (s *State) LastMessage() Message {
	if len(s.Messages) == 0 {
		return Message{}
	}
	return s.Messages[len(s.Messages)-1]
}

// HasDocuments reports whether any evidence has been gathered so far.
func (s *State) HasDocuments() bool {
	return len(s.Documents) > 0
}
