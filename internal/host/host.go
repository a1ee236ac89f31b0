// Package host runs registered nodes on behalf of an outer surface.
package host

import (
	"context"
	"time"

	"github.com/metalagman/openainodes/internal/logging"
	"github.com/metalagman/openainodes/internal/metrics"
	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/run"
	"github.com/rs/zerolog/log"
)

// Invoker executes nodes with a per-invocation logger. Metrics and History
// are optional; recording failures are logged and never change the outcome.
type Invoker struct {
	Registry *node.Registry
	Metrics  *metrics.Recorder
	History  *run.Store
}

// Result is a finished invocation.
type Result struct {
	InvocationID string
	Descriptor   node.Descriptor
	Outcome      node.Outcome
}

// Map renders the outcome in its wire shape.
func (r Result) Map() map[string]any {
	return r.Outcome.Map(r.Descriptor)
}

// Invoke runs the named node. The only error is node.ErrUnknownNode.
func (i Invoker) Invoke(ctx context.Context, name string, in node.Inputs) (Result, error) {
	n, ok := i.Registry.Lookup(name)
	if !ok {
		_, err := i.Registry.Invoke(ctx, name, in, nil)
		return Result{}, err
	}

	wf, id := logging.ForInvocation(name)
	i.recordStart(ctx, id, name, in)
	done := i.Metrics.Start(name)
	start := time.Now()
	out := n.Execute(ctx, in, wf)
	done(out)
	i.recordFinish(context.WithoutCancel(ctx), id, out)

	log.Debug().
		Str("node", name).
		Str("invocation_id", id).
		Bool("success", out.Success).
		Str("error_kind", string(out.Kind)).
		Dur("elapsed", time.Since(start)).
		Msg("node invocation finished")

	return Result{InvocationID: id, Descriptor: n.Descriptor(), Outcome: out}, nil
}

func (i Invoker) recordStart(ctx context.Context, id, name string, in node.Inputs) {
	if i.History == nil {
		return
	}
	if err := i.History.Start(ctx, id, name, in); err != nil {
		log.Warn().Err(err).Str("invocation_id", id).Msg("record invocation start")
	}
}

func (i Invoker) recordFinish(ctx context.Context, id string, out node.Outcome) {
	if i.History == nil {
		return
	}
	if err := i.History.Finish(ctx, id, out); err != nil {
		log.Warn().Err(err).Str("invocation_id", id).Msg("record invocation finish")
	}
}
