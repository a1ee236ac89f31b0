package node

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownNode is returned when invoking a name that was never registered.
var ErrUnknownNode = errors.New("unknown node")

// Registry is the static lookup table of nodes, keyed by descriptor name.
type Registry struct {
	nodes map[string]Node
	order []string
}

// NewRegistry builds a registry holding nodes.
func NewRegistry(nodes ...Node) (*Registry, error) {
	r := &Registry{nodes: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		if err := r.Register(n); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds n. Names must be unique and non-empty.
func (r *Registry) Register(n Node) error {
	name := n.Descriptor().Name
	if name == "" {
		return fmt.Errorf("register node: empty name")
	}
	if _, exists := r.nodes[name]; exists {
		return fmt.Errorf("register node: %q already registered", name)
	}
	r.nodes[name] = n
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name string) (Node, bool) {
	n, ok := r.nodes[name]
	return n, ok
}

// Descriptors returns every node's descriptor in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.nodes[name].Descriptor())
	}
	return out
}

// Invoke executes the named node.
func (r *Registry) Invoke(ctx context.Context, name string, in Inputs, log Logger) (Outcome, error) {
	n, ok := r.Lookup(name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	return n.Execute(ctx, in, log), nil
}
