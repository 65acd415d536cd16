package flowchart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles flowchart persistence in PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// InitSchema creates the flowcharts table if it does not exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS flowcharts (
			id         UUID PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			nodes      JSONB NOT NULL DEFAULT '[]',
			edges      JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Seed inserts the sample system-setup flowchart if it does not already exist.
func (r *Repository) Seed(ctx context.Context) error {
	fc := SampleFlowchart()
	nodesJSON, err := json.Marshal(fc.Nodes)
	if err != nil {
		return fmt.Errorf("marshal seed nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(fc.Edges)
	if err != nil {
		return fmt.Errorf("marshal seed edges: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO flowcharts (id, name, nodes, edges)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, fc.ID, fc.Name, nodesJSON, edgesJSON)
	if err != nil {
		return fmt.Errorf("seed flowchart: %w", err)
	}
	return nil
}

// Get retrieves a flowchart by ID. Returns nil, nil if not found.
func (r *Repository) Get(ctx context.Context, id string) (*Flowchart, error) {
	var fc Flowchart
	var nodesJSON, edgesJSON []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, name, nodes, edges, created_at, updated_at
		FROM flowcharts WHERE id = $1
	`, id).Scan(&fc.ID, &fc.Name, &nodesJSON, &edgesJSON, &fc.CreatedAt, &fc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get flowchart: %w", err)
	}

	if err := json.Unmarshal(nodesJSON, &fc.Nodes); err != nil {
		return nil, fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal(edgesJSON, &fc.Edges); err != nil {
		return nil, fmt.Errorf("unmarshal edges: %w", err)
	}
	return &fc, nil
}

// InitDB creates the schema and seeds initial data. Called from main on startup.
func InitDB(ctx context.Context, pool *pgxpool.Pool) error {
	repo := NewRepository(pool)
	if err := repo.InitSchema(ctx); err != nil {
		return err
	}
	return repo.Seed(ctx)
}

// SampleFlowchartID identifies the seeded flowchart.
const SampleFlowchartID = "550e8400-e29b-41d4-a716-446655440000"

// SampleFlowchart returns a flowchart that creates a new system and makes it
// current.
func SampleFlowchart() *Flowchart {
	return &Flowchart{
		ID:   SampleFlowchartID,
		Name: "Create System",
		Nodes: []Node{
			{
				ID: "start", Type: "start",
				Position: Position{X: 0, Y: 0},
				Data:     NodeData{Label: "Start", Description: "Begin the flowchart"},
			},
			{
				ID: "system", Type: "system",
				Position: Position{X: 0, Y: 120},
				Data: NodeData{
					Label: "System", Description: "Create a new system",
					Parameters: map[string]ParameterValue{
						"system operation": {Value: "create a new, empty system"},
						"system name":      {Value: "$system_name"},
						"system":           {Value: "new"},
					},
				},
			},
			{
				ID: "end", Type: "end",
				Position: Position{X: 0, Y: 240},
				Data:     NodeData{Label: "Complete", Description: "Flowchart finished"},
			},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start", Target: "system"},
			{ID: "e2", Source: "system", Target: "end"},
		},
	}
}
