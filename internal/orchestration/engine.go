package orchestration

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aixgo-dev/vidsense/agent"
	"github.com/aixgo-dev/vidsense/internal/observability"
)

// DefaultMaxSteps bounds the number of router decisions per Run.
const DefaultMaxSteps = 25

// Step is one executed transition: the node that acted and the message it
// produced. The engine emits one Step per worker execution.
type Step struct {
	// Node is the routing name of the worker that acted.
	Node string

	// Message is the worker's attributed message.
	Message agent.Message
}

// Engine is a cyclic state machine: enter at the router; a non-terminal
// choice runs the selected worker and returns to the router; FINISH
// exits. Every hop passes through the router, so decision-making and
// history accumulation are serialized at a single point.
type Engine struct {
	name     string
	router   Router
	workers  map[string]Worker
	members  []string
	maxSteps int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxSteps overrides the per-run step budget.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// NewEngine creates an engine over the given router and workers. The
// member list preserves worker order and is injected into the state on
// every run.
func NewEngine(name string, router Router, workers []Worker, opts ...EngineOption) *Engine {
	e := &Engine{
		name:     name,
		router:   router,
		workers:  make(map[string]Worker, len(workers)),
		members:  make([]string, 0, len(workers)),
		maxSteps: DefaultMaxSteps,
	}
	for _, w := range workers {
		e.workers[w.Name()] = w
		e.members = append(e.members, w.Name())
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine's graph name.
func (e *Engine) Name() string { return e.name }

// Members returns the worker names in registration order.
func (e *Engine) Members() []string {
	return append([]string(nil), e.members...)
}

// Run drives the graph from the given state to its terminal state in a
// single pass, invoking emit once per executed worker. The input state is
// never mutated; the returned state carries the accumulated log and the
// final document set.
//
// Errors: a worker failure surfaces as *WorkerError, an out-of-set choice
// as *UnknownRouteError, an exhausted budget as *StepLimitError. In every
// case the input state is untouched, so the caller's checkpoint reflects
// only fully completed runs.
func (e *Engine) Run(ctx context.Context, state *agent.State, emit func(Step)) (*agent.State, error) {
	ctx, span := observability.StartSpan(ctx, "orchestration."+e.name,
		trace.WithAttributes(
			attribute.String("graph.name", e.name),
			attribute.Int("graph.members", len(e.members)),
		),
	)
	defer span.End()

	cur := state.Clone()
	cur.Members = append([]string(nil), e.members...)

	for step := 0; ; step++ {
		if step >= e.maxSteps {
			err := &StepLimitError{Graph: e.name, Limit: e.maxSteps}
			span.RecordError(err)
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		choice, err := e.router.Decide(ctx, cur)
		if err != nil {
			werr := &WorkerError{Worker: e.router.Name(), Err: err}
			span.RecordError(werr)
			return nil, werr
		}
		observability.RecordRoutingDecision(e.name, choice)
		cur.Next = choice

		if choice == agent.Finish {
			span.SetAttributes(attribute.Int("graph.steps", step))
			return cur, nil
		}

		worker, ok := e.workers[choice]
		if !ok {
			err := &UnknownRouteError{Graph: e.name, Choice: choice, Members: e.members}
			span.RecordError(err)
			return nil, err
		}

		start := time.Now()
		turn, err := worker.Execute(ctx, cur)
		if err != nil {
			observability.RecordCapabilityCall(choice, "error", time.Since(start))
			werr := &WorkerError{Worker: choice, Err: err}
			span.RecordError(werr)
			return nil, werr
		}
		observability.RecordCapabilityCall(choice, "ok", time.Since(start))

		cur.Append(turn.Message)
		// A worker returning no documents means "nothing new", not
		// "drop what we have": the prior set stays.
		if len(turn.Documents) > 0 {
			cur.ReplaceDocuments(turn.Documents)
		}

		if emit != nil {
			emit(Step{Node: choice, Message: turn.Message})
		}
	}
}
