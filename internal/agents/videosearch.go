package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aixgo-dev/vidsense/internal/search"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

// maxSearchResults caps how many hits the tool reports back.
const maxSearchResults = 4

// transcriptExcerptLimit bounds how much transcript the summarizer
// sees.
const transcriptExcerptLimit = 6000

// WebSearcher is the search capability VideoSearch depends on.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// VideoContext is the video identity baked into the research tools.
type VideoContext struct {
	Title      string
	Channel    string
	Transcript string
}

// videoSearchTool holds the per-video state of the search tool. The
// transcript summary is computed on first use and cached; a failed
// summarization is retried on the next search.
type videoSearchTool struct {
	searcher WebSearcher
	client   llm.Client
	model    string
	video    VideoContext

	summaryMu   sync.Mutex
	summaryDone bool
	summary     string
}

// NewVideoSearch creates the external-research worker. Its single tool
// runs web searches enhanced with the video's title, channel, and a
// transcript summary.
func NewVideoSearch(client llm.Client, model, summarizerModel string, searcher WebSearcher, video VideoContext) *Agent {
	tool := &videoSearchTool{
		searcher: searcher,
		client:   client,
		model:    summarizerModel,
		video:    video,
	}
	return NewAgent("VideoSearch", client, model, videoSearchPrompt, []Tool{{
		Name:        "video_specific_search",
		Description: "Search for external information using web search. Use for finding other videos from the same creator, information about topics mentioned in the video, or external context. The search automatically includes the current video's title and channel.",
		Parameters:  querySchema("Search query - can be about the current video's topic OR to find other related videos"),
		Run:         tool.run,
	}})
}

func (t *videoSearchTool) run(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var q queryArgs
	if err := json.Unmarshal(args, &q); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	enhanced := t.enhanceQuery(ctx, q.Query)
	results, err := t.searcher.Search(ctx, enhanced)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Output: t.formatResults(enhanced, results)}, nil
}

// enhanceQuery appends the video identity so results stay anchored to
// this video rather than the topic at large.
func (t *videoSearchTool) enhanceQuery(ctx context.Context, query string) string {
	parts := []string{query}
	if t.video.Title != "" {
		parts = append(parts, fmt.Sprintf("%q", t.video.Title))
	}
	if t.video.Channel != "" {
		parts = append(parts, "channel:"+t.video.Channel)
	}
	if summary := t.transcriptSummary(ctx); summary != "" {
		parts = append(parts, "transcript summary: "+summary)
	}
	return strings.Join(parts, " ")
}

func (t *videoSearchTool) transcriptSummary(ctx context.Context) string {
	if t.video.Transcript == "" {
		return ""
	}
	t.summaryMu.Lock()
	defer t.summaryMu.Unlock()
	if t.summaryDone {
		return t.summary
	}

	excerpt := t.video.Transcript
	if len(excerpt) > transcriptExcerptLimit {
		excerpt = excerpt[:transcriptExcerptLimit]
	}
	resp, err := t.client.Chat(ctx, llm.Request{
		Model: t.model,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(summarizationTemplate, t.video.Title, t.video.Channel, excerpt),
		}},
	})
	if err != nil {
		// Search still works without the summary; the next search
		// tries again.
		return ""
	}
	t.summary = resp.Content
	t.summaryDone = true
	return t.summary
}

func (t *videoSearchTool) formatResults(query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Search Results for: %s\n", orUnknown(t.video.Title, "Unknown Video"))
	fmt.Fprintf(&b, "**Channel:** %s\n", orUnknown(t.video.Channel, "Unknown Channel"))
	fmt.Fprintf(&b, "**Enhanced Query:** %s\n", query)

	if len(results) == 0 {
		b.WriteString("\nNo results found.")
		return b.String()
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	for i, r := range results {
		fmt.Fprintf(&b, "\n### Result %d\n", i+1)
		fmt.Fprintf(&b, "**URL:** %s\n", orUnknown(r.URL, "N/A"))
		fmt.Fprintf(&b, "**Title:** %s\n", orUnknown(r.Title, "N/A"))
		fmt.Fprintf(&b, "**Summary:** %s\n", orUnknown(r.Content, "No content available"))
	}
	return b.String()
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
