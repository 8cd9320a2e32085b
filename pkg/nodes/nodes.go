// Package nodes wires the built-in lathe nodes into a registry.
package nodes

import (
	"fmt"

	"github.com/aretw0/lathe/pkg/nodes/morphology"
	"github.com/aretw0/lathe/pkg/nodes/overlay"
	"github.com/aretw0/lathe/pkg/nodes/textimage"
	"github.com/aretw0/lathe/pkg/nodes/video"
	"github.com/aretw0/lathe/pkg/registry"
)

// Options configures the nodes that need collaborators.
type Options struct {
	Fonts         *textimage.FontSet // nil: embedded fonts only
	MaxTextSize   int
	MaxCanvasSize int
	Video         []video.Option
}

// Builtin returns the four built-in nodes.
func Builtin(opts Options) []registry.Node {
	return []registry.Node{
		overlay.Node(),
		morphology.Node(),
		textimage.New(opts.Fonts,
			textimage.WithMaxTextSize(opts.MaxTextSize),
			textimage.WithMaxCanvasSize(opts.MaxCanvasSize),
		).Node(),
		video.New(opts.Video...).Node(),
	}
}

// Register adds the built-in nodes to r.
func Register(r *registry.Registry, opts Options) error {
	for _, n := range Builtin(opts) {
		if err := r.Register(n); err != nil {
			return fmt.Errorf("builtin nodes: %w", err)
		}
	}
	return nil
}
