package flowchart

import (
	"context"
	"sync"
)

// MemoryRepository keeps flowcharts in process, for running without PostgreSQL.
type MemoryRepository struct {
	mu         sync.RWMutex
	flowcharts map[string]*Flowchart
}

// NewMemoryRepository creates a repository holding the given flowcharts.
func NewMemoryRepository(flowcharts ...*Flowchart) *MemoryRepository {
	r := &MemoryRepository{flowcharts: make(map[string]*Flowchart, len(flowcharts))}
	for _, fc := range flowcharts {
		r.flowcharts[fc.ID] = fc
	}
	return r
}

// Get returns the flowchart with the given ID, or nil, nil if there is none.
func (r *MemoryRepository) Get(_ context.Context, id string) (*Flowchart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flowcharts[id], nil
}
