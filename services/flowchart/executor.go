package flowchart

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"system-step/api/services/systemdb"
)

// ExecutionState holds shared state passed between steps during a flowchart run.
type ExecutionState struct {
	Variables map[string]any // Flowchart variables, referenced from parameters as $name
	SystemDB  systemdb.Database
	StepIndex int // 1-based number of the step being executed
}

// StepResult is the output of executing a single node.
type StepResult struct {
	NodeID   string
	NodeType string
	Label    string
	Status   string         // "completed" or "error"
	Output   map[string]any // Must include "message"
	Duration time.Duration
	Error    string
}

// NodeExecutor runs one node of a flowchart.
type NodeExecutor interface {
	Execute(ctx context.Context, node Node, state *ExecutionState) (*StepResult, error)
}

// PluginDescription is what a step advertises to the host.
type PluginDescription struct {
	Description string `json:"description"`
	Group       string `json:"group"`
	Name        string `json:"name"`
}

// Plugin supplies the executor for one node type.
type Plugin interface {
	Description() PluginDescription
	CreateNode(node Node) (NodeExecutor, error)
}

// Registry maps node type strings to the plugin that builds them.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates a registry holding the built-in start and end steps.
func NewRegistry() *Registry {
	r := &Registry{plugins: make(map[string]Plugin)}
	r.Register("start", builtin{desc: PluginDescription{Name: "Start", Group: "Control", Description: "Begins the flowchart"}, exec: &StartExecutor{}})
	r.Register("end", builtin{desc: PluginDescription{Name: "End", Group: "Control", Description: "Ends the flowchart"}, exec: &EndExecutor{}})
	return r
}

// Register adds or replaces the plugin for a node type.
func (r *Registry) Register(nodeType string, plugin Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[nodeType] = plugin
}

// Lookup returns the plugin registered for a node type.
func (r *Registry) Lookup(nodeType string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[nodeType]
	return p, ok
}

// Descriptions returns every registered step keyed by node type.
func (r *Registry) Descriptions() map[string]PluginDescription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]PluginDescription, len(r.plugins))
	for t, p := range r.plugins {
		out[t] = p.Description()
	}
	return out
}

// Types returns the registered node types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.plugins))
	for t := range r.plugins {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) executor(node Node) (NodeExecutor, error) {
	p, ok := r.Lookup(node.Type)
	if !ok {
		return nil, fmt.Errorf("no executor registered for node type %q", node.Type)
	}
	exec, err := p.CreateNode(node)
	if err != nil {
		return nil, fmt.Errorf("create node %q: %w", node.ID, err)
	}
	return exec, nil
}

type builtin struct {
	desc PluginDescription
	exec NodeExecutor
}

func (b builtin) Description() PluginDescription          { return b.desc }
func (b builtin) CreateNode(_ Node) (NodeExecutor, error) { return b.exec, nil }
