package retrieval

import (
	"strings"

	"github.com/aixgo-dev/vidsense/agent"
)

// Chunking parameters, shared so indexing and tests agree.
const (
	ChunkSize    = 750
	ChunkOverlap = 150
)

// defaultSeparators is the split hierarchy: paragraphs first, then
// lines, then words, then raw characters.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks long text into overlapping chunks along natural
// boundaries where possible.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter creates a splitter. Non-positive arguments fall back to
// the package defaults.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = ChunkOverlap
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// SplitText splits text into chunks of at most the configured size,
// preferring paragraph and line boundaries over mid-word cuts.
func (s *Splitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, defaultSeparators)
}

// SplitDocument chunks a document's content, carrying the metadata onto
// every chunk.
func (s *Splitter) SplitDocument(doc agent.Document) []agent.Document {
	pieces := s.SplitText(doc.Content)
	out := make([]agent.Document, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, agent.NewDocument(p, doc.Metadata))
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	// Pick the first separator present in the text; the empty separator
	// always matches and splits into single characters.
	sep := separators[len(separators)-1]
	rest := separators
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var splits []string
	if sep == "" {
		for _, r := range text {
			splits = append(splits, string(r))
		}
	} else {
		splits = strings.Split(text, sep)
	}

	// Oversize pieces recurse with the finer separators; the rest are
	// merged back up to the chunk size with overlap.
	var final []string
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			final = append(final, s.merge(pending, sep)...)
			pending = nil
		}
	}
	for _, piece := range splits {
		if len(piece) <= s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		flush()
		if len(rest) == 0 {
			final = append(final, piece)
			continue
		}
		final = append(final, s.split(piece, rest)...)
	}
	flush()
	return final
}

// merge joins small splits into chunks near the target size, keeping an
// overlapping tail between consecutive chunks.
func (s *Splitter) merge(splits []string, sep string) []string {
	var chunks []string
	var window []string
	total := 0

	join := func() {
		chunk := strings.TrimSpace(strings.Join(window, sep))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range splits {
		pieceLen := len(piece)
		if total+pieceLen+len(sep)*len(window) > s.chunkSize && len(window) > 0 {
			join()
			// Shrink the window until it fits inside the overlap.
			for total > s.chunkOverlap || (total+pieceLen+len(sep)*len(window) > s.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen
	}
	join()
	return chunks
}
