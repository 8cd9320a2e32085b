package ports

import (
	"context"

	"github.com/aretw0/lathe/pkg/domain"
)

// NodeEngine is the driving port used by hosts (CLI, HTTP, MCP).
type NodeEngine interface {
	// Inspect returns every node declaration, sorted by ID.
	Inspect() []domain.NodeSpec

	// Spec returns the declaration of one node.
	Spec(id string) (domain.NodeSpec, error)

	// Execute validates the call arguments and runs the node.
	// The result is returned even on failure, with IsError set.
	Execute(ctx context.Context, call domain.NodeCall) (domain.NodeResult, error)
}
