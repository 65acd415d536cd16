package system

import (
	"fmt"

	"system-step/api/services/flowchart"
)

// Plugin registers the System step with a flowchart host.
type Plugin struct{}

// Description returns what the step advertises to the host.
func (Plugin) Description() flowchart.PluginDescription {
	return flowchart.PluginDescription{
		Description: "An interface for System",
		Group:       "Data",
		Name:        "System/Configuration",
	}
}

// CreateNode builds the step for a flowchart node, loading the parameters
// stored on the node.
func (Plugin) CreateNode(node flowchart.Node) (flowchart.NodeExecutor, error) {
	var opts []Option
	if node.Data.Label != "" {
		opts = append(opts, WithTitle(node.Data.Label))
	}
	s := New(opts...)
	if err := s.Parameters.FromData(node.Data.Parameters); err != nil {
		return nil, fmt.Errorf("load parameters: %w", err)
	}
	return s, nil
}

// CreateDialog opens the edit dialog for a step.
func (Plugin) CreateDialog(s *System) *Dialog {
	return NewDialog(s.Parameters)
}

// Register adds the step to the registry under NodeType.
func Register(r *flowchart.Registry) {
	r.Register(NodeType, Plugin{})
}
