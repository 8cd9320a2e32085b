package domain

import "github.com/aretw0/lathe/pkg/schema"

// Output kinds.
const (
	KindImage  = "image"
	KindNumber = "number"
	KindText   = "text"
	KindPath   = "path"
)

// Output describes one value a node produces.
type Output struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Kind  string `json:"kind" yaml:"kind"`
}

// NodeSpec is the declaration of a node as seen by hosts.
type NodeSpec struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Category    string        `json:"category" yaml:"category"`
	Icon        string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	Inputs      schema.Schema `json:"inputs" yaml:"-"`
	Outputs     []Output      `json:"outputs" yaml:"outputs"`

	// SideEffects is set for nodes that write to the filesystem.
	SideEffects bool `json:"side_effects,omitempty" yaml:"side_effects,omitempty"`
}

// Output returns the declared output under key.
func (s NodeSpec) Output(key string) (Output, bool) {
	for _, o := range s.Outputs {
		if o.Key == key {
			return o, true
		}
	}
	return Output{}, false
}
