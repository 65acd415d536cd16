package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"system-step/api/services/flowchart"
)

func TestPlugin_Description(t *testing.T) {
	desc := Plugin{}.Description()

	assert.Equal(t, "An interface for System", desc.Description)
	assert.Equal(t, "Data", desc.Group)
	assert.Equal(t, "System/Configuration", desc.Name)
}

func TestPlugin_CreateNode(t *testing.T) {
	node := flowchart.Node{
		ID:   "system",
		Type: NodeType,
		Data: flowchart.NodeData{
			Label: "Build water box",
			Parameters: map[string]flowchart.ParameterValue{
				KeySystemOperation: {Value: OpCreateSystem},
				KeySystemName:      {Value: "${name}"},
			},
		},
	}

	exec, err := Plugin{}.CreateNode(node)
	require.NoError(t, err)

	s, ok := exec.(*System)
	require.True(t, ok)
	assert.Equal(t, "Build water box", s.Title)
	assert.Equal(t, OpCreateSystem, s.Parameters.SystemOperation.Value)
	assert.Equal(t, "${name}", s.Parameters.SystemName.Value)
	assert.Equal(t, Current, s.Parameters.System.Value)
}

func TestPlugin_CreateNodeDefaultTitle(t *testing.T) {
	exec, err := Plugin{}.CreateNode(flowchart.Node{ID: "system", Type: NodeType})
	require.NoError(t, err)
	assert.Equal(t, "System", exec.(*System).Title)
}

func TestPlugin_CreateNodeInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]flowchart.ParameterValue
		want   error
	}{
		{"bad operation", map[string]flowchart.ParameterValue{KeySystemOperation: {Value: "delete"}}, ErrInvalidValue},
		{"unknown name", map[string]flowchart.ParameterValue{"temperature": {Value: "300", Units: "K"}}, ErrUnknownParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := flowchart.Node{ID: "system", Type: NodeType, Data: flowchart.NodeData{Parameters: tt.params}}
			_, err := Plugin{}.CreateNode(node)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister(t *testing.T) {
	r := flowchart.NewRegistry()
	Register(r)

	p, ok := r.Lookup(NodeType)
	require.True(t, ok)
	assert.Equal(t, Plugin{}.Description(), p.Description())
	assert.Contains(t, r.Types(), NodeType)
	assert.Equal(t, "System/Configuration", r.Descriptions()[NodeType].Name)
}
