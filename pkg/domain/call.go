package domain

import "time"

// NodeCall is a request to execute a node.
type NodeCall struct {
	ID     string         `json:"id,omitempty" mapstructure:"id"` // Generated when empty
	NodeID string         `json:"node_id" mapstructure:"node_id"`
	Args   map[string]any `json:"args,omitempty" mapstructure:"args"`
}

// NodeResult is the outcome of a NodeCall.
type NodeResult struct {
	ID       string         `json:"id"` // Matches NodeCall.ID
	NodeID   string         `json:"node_id"`
	Outputs  map[string]any `json:"outputs,omitempty"`
	IsError  bool           `json:"is_error,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// NodeEvent is passed to lifecycle hooks.
type NodeEvent struct {
	CallID   string
	NodeID   string
	Duration time.Duration // Zero on start
	Err      error         // Set on failed finish
}

// LifecycleHooks observe node execution. Nil hooks are skipped.
type LifecycleHooks struct {
	OnNodeStart  func(NodeEvent)
	OnNodeFinish func(NodeEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeStart:  chain(h.OnNodeStart, other.OnNodeStart),
		OnNodeFinish: chain(h.OnNodeFinish, other.OnNodeFinish),
	}
}

func chain(a, b func(NodeEvent)) func(NodeEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e NodeEvent) {
		a(e)
		b(e)
	}
}
