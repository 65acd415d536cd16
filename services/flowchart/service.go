package flowchart

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"system-step/api/services/systemdb"
)

// FlowchartRepo abstracts flowchart persistence for testability.
type FlowchartRepo interface {
	Get(ctx context.Context, id string) (*Flowchart, error)
}

// Service wires together the repository, the step registry and the system
// database for the flowchart domain.
type Service struct {
	repo     FlowchartRepo
	registry *Registry
	engine   *Engine
	systems  systemdb.Database
}

// NewService creates a Service. Every run shares the given system database.
func NewService(repo FlowchartRepo, registry *Registry, systems systemdb.Database) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		engine:   NewEngine(registry),
		systems:  systems,
	}
}

// JSONMiddleware sets the Content-Type header to application/json.
func JSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// LoadRoutes registers flowchart and step-registry HTTP handlers on the given router.
func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	router := parentRouter.PathPrefix("/flowcharts").Subrouter()
	router.StrictSlash(false)
	router.Use(JSONMiddleware)

	router.HandleFunc("/{id}", s.HandleGetFlowchart).Methods("GET")
	router.HandleFunc("/{id}/execute", s.HandleExecuteFlowchart).Methods("POST")

	parentRouter.Handle("/steps", JSONMiddleware(http.HandlerFunc(s.HandleListSteps))).Methods("GET")
}
