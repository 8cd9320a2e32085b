package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/schema"
)

// RunFunc defines the signature for a node implementation.
// It receives validated, normalised arguments and returns the node outputs
// keyed by the output keys of its NodeSpec.
type RunFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// Node pairs a declaration with its implementation.
type Node struct {
	Spec domain.NodeSpec
	Run  RunFunc
}

// Registry manages the available nodes.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]Node),
	}
}

// Register adds a node to the registry after checking its input schema.
// If a node with the same ID exists, it is overwritten.
func (r *Registry) Register(n Node) error {
	if n.Spec.ID == "" {
		return fmt.Errorf("register node: empty id")
	}
	if n.Run == nil {
		return fmt.Errorf("register node %s: nil run function", n.Spec.ID)
	}
	if err := n.Spec.Inputs.Check(); err != nil {
		return fmt.Errorf("register node %s: %w", n.Spec.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[n.Spec.ID] = n
	return nil
}

// Get returns the node registered under id.
func (r *Registry) Get(id string) (Node, error) {
	r.mu.RLock()
	n, ok := r.nodes[id]
	r.mu.RUnlock()

	if !ok {
		return Node{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return n, nil
}

// List returns every node spec sorted by ID.
func (r *Registry) List() []domain.NodeSpec {
	r.mu.RLock()
	specs := make([]domain.NodeSpec, 0, len(r.nodes))
	for _, n := range r.nodes {
		specs = append(specs, n.Spec)
	}
	r.mu.RUnlock()

	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// Execute looks up a node, validates args against its schema and runs it.
// Validation failures wrap domain.ErrInvalidArguments and keep the
// *schema.AggregateError reachable through errors.As.
func (r *Registry) Execute(ctx context.Context, id string, args map[string]any) (map[string]any, error) {
	n, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	normalized, err := schema.Validate(n.Spec.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidArguments, id, err)
	}

	return n.Run(ctx, normalized)
}
