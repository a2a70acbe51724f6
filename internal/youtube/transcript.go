package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimedTextURL = "https://video.google.com/timedtext"

// transcriptClient fetches captions from the timedtext endpoint. Not
// every video has captions; callers treat failure as "no transcript".
type transcriptClient struct {
	baseURL    string
	httpClient *http.Client
}

func newTranscriptClient() *transcriptClient {
	return &transcriptClient{
		baseURL:    defaultTimedTextURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// Fetch returns the concatenated caption text for a video.
func (t *transcriptClient) Fetch(ctx context.Context, videoID string) (string, error) {
	url := fmt.Sprintf("%s?lang=en&v=%s", t.baseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("transcript: build request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcript: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("transcript: read body: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("transcript: empty response")
	}

	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("transcript: parse: %w", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		if s := strings.TrimSpace(html.UnescapeString(t.Value)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}
