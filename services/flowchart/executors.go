package flowchart

import "context"

// StartExecutor handles the "start" node type. It is a no-op that marks the flowchart beginning.
type StartExecutor struct{}

func (e *StartExecutor) Execute(_ context.Context, node Node, _ *ExecutionState) (*StepResult, error) {
	return &StepResult{
		NodeID: node.ID, NodeType: node.Type, Label: node.Data.Label,
		Status: "completed",
		Output: map[string]any{"message": "Flowchart execution started"},
	}, nil
}

// EndExecutor handles the "end" node type. It is a no-op that marks flowchart completion.
type EndExecutor struct{}

func (e *EndExecutor) Execute(_ context.Context, node Node, _ *ExecutionState) (*StepResult, error) {
	return &StepResult{
		NodeID: node.ID, NodeType: node.Type, Label: node.Data.Label,
		Status: "completed",
		Output: map[string]any{"message": "Flowchart execution completed"},
	}, nil
}
