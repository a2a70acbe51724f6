// Package youtube fetches video metadata, comments, and transcripts
// and turns them into documents for retrieval.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// DefaultMaxComments bounds how many top-level comments are fetched
// when the caller does not say.
const DefaultMaxComments = 50

// ErrInvalidURL means no video id could be extracted from the input.
var ErrInvalidURL = errors.New("not a recognizable youtube url or video id")

// ErrVideoNotFound means the Data API returned no video for the id.
var ErrVideoNotFound = errors.New("video not found")

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	urlPatterns    = []*regexp.Regexp{
		regexp.MustCompile(`youtube\.com/watch\?.*?v=([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/v/([A-Za-z0-9_-]{11})`),
	}
)

// ExtractVideoID pulls the 11-character video id out of the common
// YouTube URL forms, or accepts a bare id.
func ExtractVideoID(url string) (string, error) {
	if videoIDPattern.MatchString(url) {
		return url, nil
	}
	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
}

// Video is the metadata slice we keep from the Data API.
type Video struct {
	ID           string
	Title        string
	Channel      string
	Description  string
	Published    string
	Views        uint64
	Likes        uint64
	CommentCount uint64
}

// Comment is one top-level comment.
type Comment struct {
	Text      string
	Author    string
	Likes     int64
	Published string
}

// VideoData bundles everything fetched for one video.
type VideoData struct {
	Video      Video
	Comments   []Comment
	Transcript string
}

// Client fetches video data from the YouTube Data API and the
// timedtext transcript endpoint.
type Client struct {
	svc         *yt.Service
	transcripts *transcriptClient
}

// NewClient creates a client authenticated with an API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	svc, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &Client{svc: svc, transcripts: newTranscriptClient()}, nil
}

// Fetch gathers video details, comments, and transcript in parallel.
// A failed transcript fetch degrades to an empty transcript; the other
// two are required.
func (c *Client) Fetch(ctx context.Context, videoID string, maxComments int) (*VideoData, error) {
	if maxComments <= 0 {
		maxComments = DefaultMaxComments
	}

	data := &VideoData{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		video, err := c.fetchVideo(gctx, videoID)
		if err != nil {
			return err
		}
		data.Video = *video
		return nil
	})
	g.Go(func() error {
		comments, err := c.fetchComments(gctx, videoID, maxComments)
		if err != nil {
			return err
		}
		data.Comments = comments
		return nil
	})
	g.Go(func() error {
		transcript, err := c.transcripts.Fetch(gctx, videoID)
		if err != nil {
			log.Printf("[YOUTUBE] transcript fetch failed for %s: %v", videoID, err)
			return nil
		}
		data.Transcript = transcript
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) fetchVideo(ctx context.Context, videoID string) (*Video, error) {
	resp, err := c.svc.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube: fetch video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	item := resp.Items[0]
	video := &Video{ID: videoID}
	if item.Snippet != nil {
		video.Title = item.Snippet.Title
		video.Channel = item.Snippet.ChannelTitle
		video.Description = item.Snippet.Description
		video.Published = item.Snippet.PublishedAt
	}
	if item.Statistics != nil {
		video.Views = item.Statistics.ViewCount
		video.Likes = item.Statistics.LikeCount
		video.CommentCount = item.Statistics.CommentCount
	}
	return video, nil
}

func (c *Client) fetchComments(ctx context.Context, videoID string, maxComments int) ([]Comment, error) {
	resp, err := c.svc.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).MaxResults(int64(maxComments)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube: fetch comments for %s: %w", videoID, err)
	}

	comments := make([]Comment, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		s := item.Snippet.TopLevelComment.Snippet
		comments = append(comments, Comment{
			Text:      s.TextDisplay,
			Author:    s.AuthorDisplayName,
			Likes:     s.LikeCount,
			Published: s.PublishedAt,
		})
	}
	return comments, nil
}
