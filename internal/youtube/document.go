package youtube

import (
	"fmt"
	"strings"

	"github.com/aixgo-dev/vidsense/agent"
)

// BuildContextDocument renders everything known about the video into
// one document. The retrieval layer chunks it.
func BuildContextDocument(data *VideoData) agent.Document {
	var b strings.Builder
	b.WriteString("# VIDEO ANALYSIS CONTEXT\n\n")
	b.WriteString("## Video Information\n")
	fmt.Fprintf(&b, "**Title:** %s\n", orNA(data.Video.Title))
	fmt.Fprintf(&b, "**Channel:** %s\n", orNA(data.Video.Channel))
	fmt.Fprintf(&b, "**Published:** %s\n", orNA(data.Video.Published))
	fmt.Fprintf(&b, "**Views:** %d\n", data.Video.Views)
	fmt.Fprintf(&b, "**Likes:** %d\n", data.Video.Likes)
	fmt.Fprintf(&b, "**Comments Count:** %d\n\n", data.Video.CommentCount)

	b.WriteString("## Video Description\n")
	if data.Video.Description != "" {
		b.WriteString(data.Video.Description)
	} else {
		b.WriteString("No description available")
	}
	b.WriteString("\n\n## Video Transcript\n")
	if data.Transcript != "" {
		b.WriteString(data.Transcript)
	} else {
		b.WriteString("No transcription available")
	}

	fmt.Fprintf(&b, "\n\n## Comments Analysis\n**Total Comments Analyzed:** %d\n\n### Comment Details:\n", len(data.Comments))
	for i, c := range data.Comments {
		fmt.Fprintf(&b, "\n**Comment %d:**\n- Author: %s\n- Likes: %d\n- Published: %s\n- Text: %s\n---\n",
			i+1, c.Author, c.Likes, c.Published, c.Text)
	}

	return agent.NewDocument(b.String(), map[string]any{
		"type":           "video_context",
		"video_id":       data.Video.ID,
		"title":          data.Video.Title,
		"channel":        data.Video.Channel,
		"comment_count":  len(data.Comments),
		"has_transcript": data.Transcript != "",
		"published":      data.Video.Published,
		"source":         "youtube_unified",
	})
}

// BuildCommentDocuments produces one document per comment. Comments
// stay unchunked so retrieval hits map back to individual commenters.
func BuildCommentDocuments(data *VideoData) []agent.Document {
	docs := make([]agent.Document, 0, len(data.Comments))
	for i, c := range data.Comments {
		docs = append(docs, agent.NewDocument(c.Text, map[string]any{
			"type":          "comment",
			"comment_index": i + 1,
			"author":        c.Author,
			"likes":         c.Likes,
			"published":     c.Published,
			"video_id":      data.Video.ID,
			"title":         data.Video.Title,
		}))
	}
	return docs
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
