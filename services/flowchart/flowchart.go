package flowchart

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// HandleGetFlowchart loads a flowchart from the database and returns it as JSON.
func (s *Service) HandleGetFlowchart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	slog.Debug("Getting flowchart", "id", id)

	if _, err := uuid.Parse(id); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid flowchart id")
		return
	}

	fc, err := s.repo.Get(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get flowchart", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if fc == nil {
		WriteError(w, http.StatusNotFound, "flowchart not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fc)
}

// HandleExecuteFlowchart runs a flowchart against the shared system database
// and returns step-by-step results. The request body is optional.
func (s *Service) HandleExecuteFlowchart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	slog.Debug("Executing flowchart", "id", id)

	if _, err := uuid.Parse(id); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid flowchart id")
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fc, err := s.repo.Get(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get flowchart for execution", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if fc == nil {
		WriteError(w, http.StatusNotFound, "flowchart not found")
		return
	}

	state := &ExecutionState{
		Variables: req.Variables,
		SystemDB:  s.systems,
	}

	results, err := s.engine.Execute(r.Context(), fc, state)
	if err != nil {
		slog.Error("Flowchart execution failed", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(results)
}

// HandleListSteps returns the description of every registered step.
func (s *Service) HandleListSteps(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.registry.Descriptions())
}

// WriteError writes a JSON error body with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
