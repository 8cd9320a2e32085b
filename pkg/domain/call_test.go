package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnNodeStart: func(e NodeEvent) { calls = append(calls, "a:"+e.NodeID) }}
	b := LifecycleHooks{
		OnNodeStart:  func(e NodeEvent) { calls = append(calls, "b:"+e.NodeID) },
		OnNodeFinish: func(e NodeEvent) { calls = append(calls, "b-done") },
	}

	m := a.Merge(b)
	m.OnNodeStart(NodeEvent{NodeID: "morphology"})
	m.OnNodeFinish(NodeEvent{})

	assert.Equal(t, []string{"a:morphology", "b:morphology", "b-done"}, calls)

	empty := LifecycleHooks{}.Merge(LifecycleHooks{})
	assert.Nil(t, empty.OnNodeStart)
	assert.Nil(t, empty.OnNodeFinish)
}

func TestNodeSpec_Output(t *testing.T) {
	spec := NodeSpec{Outputs: []Output{{Key: "image", Kind: KindImage}}}

	o, ok := spec.Output("image")
	assert.True(t, ok)
	assert.Equal(t, KindImage, o.Kind)

	_, ok = spec.Output("missing")
	assert.False(t, ok)
}
