package node

import (
	"context"
	"fmt"
)

// Logger receives workflow log lines. It never affects control flow.
type Logger interface {
	Info(msg string)
	Error(msg string)
}

// Node is a single task node.
type Node interface {
	Descriptor() Descriptor
	// Execute runs one invocation. It never returns an error: every failure
	// becomes a failure Outcome.
	Execute(ctx context.Context, in Inputs, log Logger) Outcome
}

// RunFunc is the typed body of a node.
type RunFunc[In any] func(ctx context.Context, in In, log Logger) (Outputs, error)

// Func adapts a typed RunFunc to Node. It binds inputs into In before
// calling Run and maps any error or panic to a failure Outcome.
type Func[In any] struct {
	Desc Descriptor
	Run  RunFunc[In]
}

// New returns a Node backed by run.
func New[In any](desc Descriptor, run RunFunc[In]) *Func[In] {
	return &Func[In]{Desc: desc, Run: run}
}

// Descriptor implements Node.
func (f *Func[In]) Descriptor() Descriptor {
	return f.Desc
}

// Execute implements Node.
func (f *Func[In]) Execute(ctx context.Context, in Inputs, log Logger) (outcome Outcome) {
	if log == nil {
		log = Discard
	}
	defer func() {
		if r := recover(); r != nil {
			outcome = f.fail(log, Fail(KindTransport, fmt.Errorf("panic: %v", r)))
		}
	}()

	var args In
	if err := f.Desc.Bind(in, &args); err != nil {
		return f.fail(log, err)
	}
	out, err := f.Run(ctx, args, log)
	if err != nil {
		return f.fail(log, err)
	}
	return Succeeded(out)
}

func (f *Func[In]) fail(log Logger, err error) Outcome {
	msg := fmt.Sprintf("%s failed: %v", f.Desc.FailurePrefix, err)
	log.Error(msg)
	return Failed(KindOf(err), msg)
}

type discard struct{}

func (discard) Info(string)  {}
func (discard) Error(string) {}

// Discard is a Logger that drops every line.
var Discard Logger = discard{}
