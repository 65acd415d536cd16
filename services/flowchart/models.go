package flowchart

import "time"

// Flowchart represents a persisted flowchart with its graph of nodes and edges.
type Flowchart struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Node represents a single step in a flowchart.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Position holds x/y coordinates for drawing the node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds the display data and control parameters for a node.
type NodeData struct {
	Label       string                    `json:"label"`
	Description string                    `json:"description"`
	Parameters  map[string]ParameterValue `json:"parameters,omitempty"`
	Metadata    map[string]any            `json:"metadata,omitempty"`
}

// ParameterValue is the stored value of one control parameter.
type ParameterValue struct {
	Value string `json:"value"`
	Units string `json:"units,omitempty"`
}

// Edge represents a directed connection between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// ExecuteRequest is the JSON body for executing a flowchart.
type ExecuteRequest struct {
	Variables map[string]any `json:"variables"`
}

// ExecutionResults is the top-level response returned after executing a flowchart.
type ExecutionResults struct {
	ExecutionID   string          `json:"executionId"`
	Status        string          `json:"status"`
	StartTime     string          `json:"startTime"`
	EndTime       string          `json:"endTime"`
	TotalDuration int64           `json:"totalDuration"`
	Steps         []ExecutionStep `json:"steps"`
	Variables     map[string]any  `json:"variables,omitempty"`
}

// ExecutionStep represents the result of executing a single node.
type ExecutionStep struct {
	StepNumber int            `json:"stepNumber"`
	NodeID     string         `json:"nodeId"`
	NodeType   string         `json:"nodeType"`
	Label      string         `json:"label"`
	Status     string         `json:"status"`
	Duration   int64          `json:"duration"`
	Output     map[string]any `json:"output"`
	Timestamp  string         `json:"timestamp"`
	Error      string         `json:"error,omitempty"`
}
