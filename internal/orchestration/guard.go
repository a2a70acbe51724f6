package orchestration

import (
	"context"
	"log"

	"github.com/aixgo-dev/vidsense/agent"
)

// DocGuard decorates a Router with a hard documents-before-analysis
// precondition. The routing prompts already ask the supervisor to gather
// evidence before analyzing, but that contract is advisory; DocGuard makes
// it mechanical without putting policy into the engine itself.
type DocGuard struct {
	inner Router

	// guarded lists choices that require documents in state.
	guarded map[string]bool

	// fallback is the route substituted when a guarded choice arrives
	// with no documents present.
	fallback string
}

// NewDocGuard wraps inner so that any choice in guarded is rewritten to
// fallback while the state holds no documents.
func NewDocGuard(inner Router, guarded []string, fallback string) *DocGuard {
	g := &DocGuard{
		inner:    inner,
		guarded:  make(map[string]bool, len(guarded)),
		fallback: fallback,
	}
	for _, name := range guarded {
		g.guarded[name] = true
	}
	return g
}

// Name returns the inner router's name.
func (g *DocGuard) Name() string { return g.inner.Name() }

// Decide delegates to the inner router and enforces the precondition on
// its answer.
func (g *DocGuard) Decide(ctx context.Context, state *agent.State) (string, error) {
	choice, err := g.inner.Decide(ctx, state)
	if err != nil {
		return "", err
	}
	if choice != agent.Finish && g.guarded[choice] && !state.HasDocuments() {
		log.Printf("[ROUTER] %s: rewriting %q to %q, no documents gathered yet", g.inner.Name(), choice, g.fallback)
		return g.fallback, nil
	}
	return choice, nil
}
