package orchestration

import (
	"context"
	"fmt"

	"github.com/aixgo-dev/vidsense/agent"
)

// TeamWorker exposes a full Engine as a single opaque Worker to the level
// above. Entering the team projects the outer state down (the team's
// member list replaces the outer routing context; log and documents carry
// over). Exiting, the team contributes exactly one message, the last one
// its inner run produced, plus the inner document set if non-empty.
type TeamWorker struct {
	name   string
	engine *Engine
	emit   func(Step)
}

// NewTeamWorker wraps engine under the given outer-level routing name.
// If emit is non-nil, inner steps are forwarded to it so the driver can
// stream nested progress.
func NewTeamWorker(name string, engine *Engine, emit func(Step)) *TeamWorker {
	return &TeamWorker{name: name, engine: engine, emit: emit}
}

// Name returns the team's routing name at the outer level.
func (t *TeamWorker) Name() string { return t.name }

// Execute runs the inner engine to completion and folds its result into
// one Turn for the outer graph.
func (t *TeamWorker) Execute(ctx context.Context, state *agent.State) (*Turn, error) {
	inner := state.ForTeam(t.engine.Members())

	final, err := t.engine.Run(ctx, inner, t.emit)
	if err != nil {
		return nil, err
	}

	if len(final.Messages) == len(inner.Messages) {
		return nil, fmt.Errorf("team %s finished without producing a message", t.name)
	}

	// The inner run enters with the outer document set and the engine
	// only replaces it on a non-empty worker result, so final.Documents
	// is either the carried-over set or a superset of evidence. Handing
	// it back never loses documents gathered by earlier research runs,
	// even when this team produced none itself.
	return &Turn{Message: final.LastMessage(), Documents: final.Documents}, nil
}
