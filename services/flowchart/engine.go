package flowchart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const maxSteps = 100

// Engine traverses a flowchart and executes each node in sequence.
type Engine struct {
	registry *Registry
}

// NewEngine creates an Engine with the given plugin registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Execute traverses the flowchart starting from the "start" node, creating
// each node through the registry and collecting step results.
// On error, execution stops and partial results are returned with status "failed".
func (e *Engine) Execute(ctx context.Context, fc *Flowchart, state *ExecutionState) (*ExecutionResults, error) {
	if state.Variables == nil {
		state.Variables = make(map[string]any)
	}

	startTime := time.Now()

	current, err := findStartNode(fc.Nodes)
	if err != nil {
		return nil, err
	}

	// Build adjacency: source node ID -> outgoing edges
	edgeMap := buildEdgeMap(fc.Edges)

	nodeMap := make(map[string]*Node, len(fc.Nodes))
	for i := range fc.Nodes {
		nodeMap[fc.Nodes[i].ID] = &fc.Nodes[i]
	}

	var steps []ExecutionStep
	stepNum := 0

	for stepNum < maxSteps {
		executor, err := e.registry.executor(*current)
		if err != nil {
			return nil, err
		}

		stepNum++
		state.StepIndex = stepNum

		stepStart := time.Now()
		result, execErr := executor.Execute(ctx, *current, state)
		duration := time.Since(stepStart)

		step := ExecutionStep{
			StepNumber: stepNum,
			NodeID:     current.ID,
			NodeType:   current.Type,
			Label:      current.Data.Label,
			Duration:   duration.Milliseconds(),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}

		if execErr != nil {
			slog.Error("Step failed", "node", current.ID, "type", current.Type, "error", execErr)
			step.Status = "error"
			step.Error = execErr.Error()
			step.Output = map[string]any{"message": fmt.Sprintf("Error: %s", execErr.Error())}
			steps = append(steps, step)

			return results("failed", startTime, steps, state), nil
		}

		step.Status = result.Status
		step.Output = result.Output
		steps = append(steps, step)

		edges := edgeMap[current.ID]
		if len(edges) == 0 {
			return results("completed", startTime, steps, state), nil
		}

		next, ok := nodeMap[edges[0].Target]
		if !ok {
			return nil, fmt.Errorf("edge target node %q not found", edges[0].Target)
		}
		current = next
	}

	return nil, fmt.Errorf("execution exceeded maximum of %d steps (possible cycle)", maxSteps)
}

func results(status string, startTime time.Time, steps []ExecutionStep, state *ExecutionState) *ExecutionResults {
	endTime := time.Now()
	return &ExecutionResults{
		ExecutionID:   uuid.New().String(),
		Status:        status,
		StartTime:     startTime.UTC().Format(time.RFC3339),
		EndTime:       endTime.UTC().Format(time.RFC3339),
		TotalDuration: endTime.Sub(startTime).Milliseconds(),
		Steps:         steps,
		Variables:     state.Variables,
	}
}

func findStartNode(nodes []Node) (*Node, error) {
	for i := range nodes {
		if nodes[i].Type == "start" {
			return &nodes[i], nil
		}
	}
	return nil, fmt.Errorf("flowchart has no start node")
}

func buildEdgeMap(edges []Edge) map[string][]Edge {
	m := make(map[string][]Edge)
	for _, edge := range edges {
		m[edge.Source] = append(m[edge.Source], edge)
	}
	return m
}
