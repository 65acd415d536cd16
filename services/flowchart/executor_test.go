package flowchart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartExecutor(t *testing.T) {
	exec := &StartExecutor{}
	node := Node{ID: "start", Type: "start", Data: NodeData{Label: "Start"}}

	result, err := exec.Execute(context.Background(), node, &ExecutionState{})

	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.NotEmpty(t, result.Output["message"])
}

func TestEndExecutor(t *testing.T) {
	exec := &EndExecutor{}
	node := Node{ID: "end", Type: "end", Data: NodeData{Label: "Complete"}}

	result, err := exec.Execute(context.Background(), node, &ExecutionState{})

	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.NotEmpty(t, result.Output["message"])
}

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"end", "start"}, r.Types())

	p, ok := r.Lookup("start")
	require.True(t, ok)
	exec, err := p.CreateNode(Node{})
	require.NoError(t, err)
	assert.IsType(t, &StartExecutor{}, exec)

	_, ok = r.Lookup("system")
	assert.False(t, ok)
}

func TestRegistry_RegisterAndDescribe(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", &fakePlugin{})

	descs := r.Descriptions()
	require.Contains(t, descs, "fake")
	assert.Equal(t, PluginDescription{Name: "Fake", Group: "Test", Description: "A test step"}, descs["fake"])
	assert.Equal(t, "Control", descs["start"].Group)
	assert.Equal(t, []string{"end", "fake", "start"}, r.Types())
}
