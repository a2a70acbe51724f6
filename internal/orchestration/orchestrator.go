// Package orchestration implements the cyclic router→worker graph engine
// used at both the team level and the system level. The engine owns
// history accumulation and document propagation; the decision of who acts
// next is delegated to an injected Router.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aixgo-dev/vidsense/agent"
)

// Turn is the result of one worker invocation: exactly one attributed
// message, plus any documents the worker produced. An empty Documents
// slice means "no new documents this turn", never "clear existing ones".
type Turn struct {
	Message   agent.Message
	Documents []agent.Document
}

// Worker turns conversation state into one attributed message.
// Implementations must not retain state across invocations belonging to
// different sessions.
type Worker interface {
	// Name returns the unique routing name for this worker.
	Name() string

	// Execute processes the current state and returns one Turn.
	// The state must not be mutated.
	Execute(ctx context.Context, state *agent.State) (*Turn, error)
}

// Router decides which member acts next, or agent.Finish to exit the
// loop. The engine trusts the returned choice verbatim except for
// membership validation.
type Router interface {
	// Name returns the router's node name (e.g. "ResearchSupervisor").
	Name() string

	// Decide returns the name of the next worker, or agent.Finish.
	// state.Members lists the valid choices at this level.
	Decide(ctx context.Context, state *agent.State) (string, error)
}

// ErrStepLimit is the base error for step budget exhaustion.
var ErrStepLimit = errors.New("step budget exceeded")

// ErrUnknownRoute is the base error for out-of-set routing choices.
var ErrUnknownRoute = errors.New("unknown route")

// UnknownRouteError reports a router choice outside members ∪ {FINISH}.
// It is fatal for the current turn; there is no silent fallback.
type UnknownRouteError struct {
	Graph   string
	Choice  string
	Members []string
}

func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("%s: router chose %q, valid choices are %s or %s",
		e.Graph, e.Choice, strings.Join(e.Members, ", "), agent.Finish)
}

func (e *UnknownRouteError) Unwrap() error { return ErrUnknownRoute }

// StepLimitError reports that a graph exceeded its step budget. It is
// reported distinctly from worker failures.
type StepLimitError struct {
	Graph string
	Limit int
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("%s: exceeded step budget of %d decisions", e.Graph, e.Limit)
}

func (e *StepLimitError) Unwrap() error { return ErrStepLimit }

// WorkerError wraps a capability failure so callers can recover it at the
// turn level without tearing down the session.
type WorkerError struct {
	Worker string
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("capability %s failed: %v", e.Worker, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }
