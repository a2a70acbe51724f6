// Package service drives analysis turns: it assembles the two-tier
// agent machine for a session, runs one streaming pass per question,
// and commits the conversation checkpoint when the turn completes.
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/internal/agents"
	"github.com/aixgo-dev/vidsense/internal/observability"
	"github.com/aixgo-dev/vidsense/internal/orchestration"
	"github.com/aixgo-dev/vidsense/internal/retrieval"
	"github.com/aixgo-dev/vidsense/internal/session"
	"github.com/aixgo-dev/vidsense/internal/supervisor"
	"github.com/aixgo-dev/vidsense/internal/youtube"
	"github.com/aixgo-dev/vidsense/pkg/config"
	"github.com/aixgo-dev/vidsense/pkg/llm"
)

// Team and worker names used across the routing graphs.
const (
	ResearchTeam = "Research team"
	AnalysisTeam = "Analysis team"
)

// VideoFetcher pulls everything needed about a video.
type VideoFetcher interface {
	Fetch(ctx context.Context, videoID string, maxComments int) (*youtube.VideoData, error)
}

// Analyzer owns the session store and builds the agent machine for
// each turn.
type Analyzer struct {
	cfg      *config.Config
	client   llm.Client
	searcher agents.WebSearcher
	videos   VideoFetcher
	store    *session.Store
	backend  session.Backend
}

// NewAnalyzer wires the analyzer. Every decision-maker call made on
// behalf of a turn carries the configured per-call timeout, so a hung
// upstream surfaces as a capability failure instead of stalling the
// turn.
func NewAnalyzer(cfg *config.Config, client llm.Client, searcher agents.WebSearcher, videos VideoFetcher, store *session.Store, backend session.Backend) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		client:   llm.WithTimeout(client, cfg.LLMTimeout),
		searcher: searcher,
		videos:   videos,
		store:    store,
		backend:  backend,
	}
}

// Store exposes the session store for listing and deletion endpoints.
func (a *Analyzer) Store() *session.Store { return a.store }

// Analyze starts a new session for a video URL and answers the first
// question. Events stream through emit as the turn progresses.
func (a *Analyzer) Analyze(ctx context.Context, url string, maxComments int, question string, emit Emit) error {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		observability.RecordTurn("analyze", "error")
		return err
	}
	if maxComments <= 0 {
		maxComments = a.cfg.MaxComments
	}

	emit(progressEvent("Fetching video data..."))
	data, err := a.videos.Fetch(ctx, videoID, maxComments)
	if err != nil {
		observability.RecordTurn("analyze", "error")
		return fmt.Errorf("fetch video data: %w", err)
	}

	emit(progressEvent("Building retrieval index..."))
	contextDoc := youtube.BuildContextDocument(data)
	comments := youtube.BuildCommentDocuments(data)
	idx := retrieval.NewIndex(retrieval.PrepareForRetrieval(contextDoc, comments))

	sess := a.store.Create(videoID, data.Video.Title, data.Video.Channel)
	sess.Index = idx
	sess.Data = data

	emit(Event{
		Type:      EventSessionCreated,
		SessionID: sess.ID,
		VideoID:   sess.VideoID,
		Title:     sess.Title,
		Channel:   sess.Channel,
	})

	return a.runTurn(ctx, sess, question, "analyze", emit)
}

// Query answers a follow-up question against an existing session.
func (a *Analyzer) Query(ctx context.Context, sessionID, question string, emit Emit) error {
	sess, err := a.store.Get(sessionID)
	if err != nil {
		observability.RecordTurn("query", "error")
		return err
	}
	return a.runTurn(ctx, sess, question, "query", emit)
}

// runTurn executes one conversation turn. The session lock serializes
// concurrent questions; the checkpoint is only replaced when the whole
// turn completed, so a failed or cancelled turn leaves the committed
// conversation untouched.
func (a *Analyzer) runTurn(ctx context.Context, sess *session.Session, question, kind string, emit Emit) error {
	sess.Lock()
	defer sess.Unlock()

	state := a.restoreState(ctx, sess)
	state.Append(agent.NewMessage(agent.UserName, question))

	emitStep := func(step orchestration.Step) {
		emit(agentMessageEvent(step.Message.Name, step.Message.Content))
	}

	// The team workers stream their inner steps; the system level stays
	// silent so each worker message reaches the client exactly once.
	machine := a.buildMachine(sess, emitStep)
	final, err := machine.Run(ctx, state, nil)
	if err != nil {
		observability.RecordTurn(kind, "error")
		return err
	}

	sess.Checkpoint = final.Clone()
	if err := a.backend.Save(ctx, sess.ID, final); err != nil {
		log.Printf("[SESSION] checkpoint save failed for %s: %v", sess.ID, err)
	}

	emit(Event{
		Type:      EventFinal,
		Content:   final.LastMessage().Content,
		Documents: projectDocuments(final.Documents),
	})
	observability.RecordTurn(kind, "ok")
	return nil
}

// restoreState returns the committed conversation, falling back to the
// durable backend for sessions that predate this process.
func (a *Analyzer) restoreState(ctx context.Context, sess *session.Session) *agent.State {
	if sess.Checkpoint != nil {
		return sess.Checkpoint.Clone()
	}
	if restored, err := a.backend.Load(ctx, sess.ID); err == nil {
		return restored
	}
	return &agent.State{}
}

// buildMachine assembles the two-tier machine for a session: research
// and analysis team engines wrapped as workers under the system
// engine, with the document guard enforcing research-before-analysis.
func (a *Analyzer) buildMachine(sess *session.Session, emitStep func(orchestration.Step)) *orchestration.Engine {
	models := a.cfg.Models

	videoSearch := agents.NewVideoSearch(a.client, models.Research, models.Summarizer, a.searcher, agents.VideoContext{
		Title:      sess.Title,
		Channel:    sess.Channel,
		Transcript: sess.Data.Transcript,
	})
	answerer := retrieval.NewAnswerer(a.client, models.Generator)
	commentFinder := agents.NewCommentFinder(a.client, models.Research, answerer, sess.Index)

	research := orchestration.NewEngine("research",
		supervisor.New("research", a.client, models.Supervisor, supervisor.ResearchPrompt, []string{videoSearch.Name(), commentFinder.Name()}),
		[]orchestration.Worker{videoSearch, commentFinder},
		orchestration.WithMaxSteps(a.cfg.MaxSteps),
	)

	sentiment := agents.NewSentiment(a.client, models.Analysis)
	topic := agents.NewTopic(a.client, models.Analysis)

	analysis := orchestration.NewEngine("analysis",
		supervisor.New("analysis", a.client, models.Supervisor, supervisor.AnalysisPrompt, []string{sentiment.Name(), topic.Name()}),
		[]orchestration.Worker{sentiment, topic},
		orchestration.WithMaxSteps(a.cfg.MaxSteps),
	)

	top := supervisor.New("system", a.client, models.Supervisor, supervisor.TopPrompt, []string{ResearchTeam, AnalysisTeam})
	guard := orchestration.NewDocGuard(top, []string{AnalysisTeam}, ResearchTeam)

	return orchestration.NewEngine("system", guard,
		[]orchestration.Worker{
			orchestration.NewTeamWorker(ResearchTeam, research, emitStep),
			orchestration.NewTeamWorker(AnalysisTeam, analysis, emitStep),
		},
		orchestration.WithMaxSteps(a.cfg.MaxSteps),
	)
}

func projectDocuments(docs []agent.Document) []DocumentView {
	out := make([]DocumentView, len(docs))
	for i, d := range docs {
		out[i] = DocumentView{Content: d.Content, Metadata: d.Metadata}
	}
	return out
}
