package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch url extra params", "https://www.youtube.com/watch?t=42&v=dQw4w9WgXcQ&list=PL1", "dQw4w9WgXcQ", false},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"v url", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"not a video url", "https://example.com/watch?v=nope", "", true},
		{"too short id", "abc123", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranscriptFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?><transcript><text start="0" dur="2">never gonna</text><text start="2" dur="2">give &amp;you&#39; up</text><text start="4" dur="1">  </text></transcript>`))
	}))
	defer srv.Close()

	tc := &transcriptClient{baseURL: srv.URL, httpClient: srv.Client()}
	text, err := tc.Fetch(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "never gonna give &you' up", text)
}

func TestTranscriptFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"empty body", func(w http.ResponseWriter, r *http.Request) {}},
		{"bad xml", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<transcript><text>")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			tc := &transcriptClient{baseURL: srv.URL, httpClient: srv.Client()}
			_, err := tc.Fetch(context.Background(), "dQw4w9WgXcQ")
			assert.Error(t, err)
		})
	}
}

func sampleData() *VideoData {
	return &VideoData{
		Video: Video{
			ID:           "dQw4w9WgXcQ",
			Title:        "Test Video",
			Channel:      "Test Channel",
			Published:    "2024-01-01T00:00:00Z",
			Views:        1000,
			Likes:        100,
			CommentCount: 2,
		},
		Comments: []Comment{
			{Text: "great editing", Author: "ana", Likes: 5, Published: "2024-01-02T00:00:00Z"},
			{Text: "audio was bad", Author: "bob", Likes: 1, Published: "2024-01-03T00:00:00Z"},
		},
		Transcript: "hello and welcome",
	}
}

func TestBuildContextDocument(t *testing.T) {
	doc := BuildContextDocument(sampleData())
	assert.Contains(t, doc.Content, "**Title:** Test Video")
	assert.Contains(t, doc.Content, "hello and welcome")
	assert.Contains(t, doc.Content, "**Comment 2:**")
	assert.Contains(t, doc.Content, "- Text: audio was bad")
	assert.Equal(t, "video_context", doc.Metadata["type"])
	assert.Equal(t, "dQw4w9WgXcQ", doc.Metadata["video_id"])
	assert.Equal(t, true, doc.Metadata["has_transcript"])
	assert.Equal(t, 2, doc.Metadata["comment_count"])
}

func TestBuildContextDocumentDegraded(t *testing.T) {
	data := sampleData()
	data.Transcript = ""
	data.Video.Description = ""
	doc := BuildContextDocument(data)
	assert.Contains(t, doc.Content, "No transcription available")
	assert.Contains(t, doc.Content, "No description available")
	assert.Equal(t, false, doc.Metadata["has_transcript"])
}

func TestBuildCommentDocuments(t *testing.T) {
	docs := BuildCommentDocuments(sampleData())
	require.Len(t, docs, 2)
	assert.Equal(t, "great editing", docs[0].Content)
	assert.Equal(t, "comment", docs[0].Metadata["type"])
	assert.Equal(t, 1, docs[0].Metadata["comment_index"])
	assert.Equal(t, "bob", docs[1].Metadata["author"])
	assert.Equal(t, "Test Video", docs[1].Metadata["title"])
}
